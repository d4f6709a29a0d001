package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/response"
)

type WalletHandler struct {
	ledger    LedgerService
	validator *validator.Validate
}

func NewWalletHandler(ledger LedgerService) *WalletHandler {
	return &WalletHandler{
		ledger:    ledger,
		validator: newValidator(),
	}
}

// CreateWallet handles POST /wallets
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWalletRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	wallet, err := h.ledger.CreateWallet(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, wallet)
}

// GetWallet handles GET /wallets/{walletId}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.ledger.GetWallet(r.Context(), mux.Vars(r)["walletId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, wallet)
}

// GetWalletByOwner handles GET /wallets?owner_id=
func (h *WalletHandler) GetWalletByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, r, customError.WrapInvalidRequest("owner_id is required"))
		return
	}

	wallet, err := h.ledger.GetWalletByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, wallet)
}

// ApplyTransaction handles POST /wallets/{walletId}/transactions
func (h *WalletHandler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.ApplyTransactionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	req.WalletID = mux.Vars(r)["walletId"]

	tx, err := h.ledger.ApplyTransaction(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, tx)
}

// GetTransactions handles GET /wallets/{walletId}/transactions with the
// optional type, date_from, date_to, page and limit query parameters.
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.ledger.GetTransactions(r.Context(), mux.Vars(r)["walletId"], filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, page)
}

// ReconcileWallet handles GET /wallets/{walletId}/reconciliation
func (h *WalletHandler) ReconcileWallet(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.ReconcileWallet(r.Context(), mux.Vars(r)["walletId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, report)
}

// Transfer handles POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	result, err := h.ledger.Transfer(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

func transactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	var filter domain.TransactionFilter
	var err error

	if raw := r.URL.Query().Get("type"); raw != "" {
		t := domain.TransactionType(raw)
		filter.Type = &t
	}
	if filter.DateFrom, err = queryDate(r, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = queryDate(r, "date_to"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(r, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}
