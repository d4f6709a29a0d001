package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/pkg/response"
)

type LoanHandler struct {
	loans     LoanService
	validator *validator.Validate
}

func NewLoanHandler(loans LoanService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		validator: newValidator(),
	}
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.loans.CreateLoan(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, resp)
}

// ListActiveLoans handles GET /loans
func (h *LoanHandler) ListActiveLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListActiveLoans(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, loans)
}

// GetLoan handles GET /loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loans.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, loan)
}

// GetInstallments handles GET /loans/{loanId}/installments
func (h *LoanHandler) GetInstallments(w http.ResponseWriter, r *http.Request) {
	installments, err := h.loans.GetInstallments(r.Context(), mux.Vars(r)["loanId"], time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, installments)
}

// GetOutstanding handles GET /loans/{loanId}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	outstanding, err := h.loans.GetOutstanding(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, outstanding)
}

// IsDelinquent handles GET /loans/{loanId}/delinquent
func (h *LoanHandler) IsDelinquent(w http.ResponseWriter, r *http.Request) {
	status, err := h.loans.IsDelinquent(r.Context(), mux.Vars(r)["loanId"], time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, status)
}
