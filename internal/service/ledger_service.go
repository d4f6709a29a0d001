package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// LedgerService owns wallets and their append-only transaction history.
type LedgerService struct {
	store    repository.Store
	authz    Authorizer
	settings settings
	log      zerolog.Logger
}

func NewLedgerService(store repository.Store, authz Authorizer, cfg *config.Config) *LedgerService {
	return &LedgerService{
		store:    store,
		authz:    authz,
		settings: settingsFrom(cfg),
		log:      logger.WithComponent("ledger_service"),
	}
}

func (s *LedgerService) CreateWallet(ctx context.Context, req *domain.CreateWalletRequest, now time.Time) (*domain.Wallet, error) {
	if err := s.authz.Authorize(ctx, CapManageWallets); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.settings.currency
	}
	wallet := &domain.Wallet{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Balance:   decimal.Zero,
		Currency:  currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Repositories().Wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, customError.WrapInvalidRequest("owner " + req.OwnerID + " already has a wallet")
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return wallet, nil
}

func (s *LedgerService) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if err := s.authz.Authorize(ctx, CapViewWallets); err != nil {
		return nil, err
	}
	return getWallet(ctx, s.store.Repositories(), walletID)
}

func (s *LedgerService) GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if err := s.authz.Authorize(ctx, CapViewWallets); err != nil {
		return nil, err
	}

	wallet, err := s.store.Repositories().Wallets.GetByOwnerID(ctx, ownerID)
	if isNotFound(err) {
		return nil, customError.WrapWalletNotFound("owned by " + ownerID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return wallet, nil
}

// ApplyTransaction appends one ledger row and moves the balance atomically.
// Only DEPOSIT, WITHDRAWAL and LOAN_DISBURSEMENT are accepted; transfer legs
// come from Transfer and payment entries from PaymentService.
func (s *LedgerService) ApplyTransaction(ctx context.Context, req *domain.ApplyTransactionRequest, now time.Time) (*domain.WalletTransaction, error) {
	if err := s.authz.Authorize(ctx, CapManageWallets); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, customError.WrapInvalidRequest("unknown transaction type " + string(req.Type))
	}
	if !req.Type.IsStandalone() {
		return nil, customError.WrapInvalidRequest(string(req.Type) + " cannot be applied directly")
	}
	if !utils.IsMoney(req.Amount) {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount.String())
	}

	var tx *domain.WalletTransaction
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		wallet, err := lockWallet(ctx, repos, req.WalletID)
		if err != nil {
			return err
		}
		tx, err = applyToWallet(ctx, repos, wallet, ledgerEntry{
			Type:                 req.Type,
			Amount:               req.Amount,
			RelatedInstallmentID: req.RelatedInstallmentID,
			RelatedTransactionID: req.RelatedTransactionID,
			Description:          req.Description,
		}, now)
		return err
	})
	if err != nil {
		return nil, storeError(err, "wallet", req.WalletID)
	}

	s.log.Info().
		Str("wallet_id", tx.WalletID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Str("balance_after", tx.BalanceAfter.String()).
		Msg("wallet transaction applied")
	return tx, nil
}

// Transfer moves funds between two wallets: TRANSFER_TO_MANAGER on the
// source, TRANSFER_FROM_SUBADMIN on the target, cross-linked. Wallets are
// locked in id order so opposite transfers cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, req *domain.TransferRequest, now time.Time) (*domain.TransferResult, error) {
	if err := s.authz.Authorize(ctx, CapTransfer); err != nil {
		return nil, err
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, customError.WrapInvalidRequest("cannot transfer to the same wallet")
	}
	if !req.Amount.IsPositive() || !utils.IsMoney(req.Amount) {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount.String())
	}

	result := &domain.TransferResult{}
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		firstID, secondID := req.FromWalletID, req.ToWalletID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := lockWallet(ctx, repos, firstID)
		if err != nil {
			return err
		}
		second, err := lockWallet(ctx, repos, secondID)
		if err != nil {
			return err
		}

		from, to := first, second
		if from.ID != req.FromWalletID {
			from, to = second, first
		}
		if from.Currency != to.Currency {
			return customError.WrapInvalidRequest("wallets hold different currencies")
		}

		debitID, creditID := uuid.NewString(), uuid.NewString()
		debit, err := applyToWallet(ctx, repos, from, ledgerEntry{
			ID:                   debitID,
			Type:                 domain.TransactionTransferToManager,
			Amount:               req.Amount,
			RelatedTransactionID: &creditID,
			Description:          req.Description,
		}, now)
		if err != nil {
			return err
		}
		credit, err := applyToWallet(ctx, repos, to, ledgerEntry{
			ID:                   creditID,
			Type:                 domain.TransactionTransferFromSubadmin,
			Amount:               req.Amount,
			RelatedTransactionID: &debitID,
			Description:          req.Description,
		}, now)
		if err != nil {
			return err
		}

		result.Debit, result.Credit = debit, credit
		return nil
	})
	if err != nil {
		return nil, storeError(err, "wallet", req.FromWalletID)
	}

	s.log.Info().
		Str("from_wallet_id", req.FromWalletID).
		Str("to_wallet_id", req.ToWalletID).
		Str("amount", req.Amount.String()).
		Msg("transfer completed")
	return result, nil
}

// GetTransactions returns one page of a wallet's history, newest first.
// Day bounds are inclusive and resolved in the operational timezone.
func (s *LedgerService) GetTransactions(ctx context.Context, walletID string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	if err := s.authz.Authorize(ctx, CapViewWallets); err != nil {
		return nil, err
	}
	filter.Normalize()

	if filter.Type != nil && !filter.Type.Valid() {
		return nil, customError.WrapInvalidRequest("unknown transaction type " + string(*filter.Type))
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, customError.WrapInvalidRequest("date_to is before date_from")
	}

	repos := s.store.Repositories()
	if _, err := getWallet(ctx, repos, walletID); err != nil {
		return nil, err
	}

	query := repository.TransactionQuery{Limit: filter.Limit, Offset: filter.Offset()}
	if filter.Type != nil {
		query.Types = []domain.TransactionType{*filter.Type}
	}
	if filter.DateFrom != nil {
		from := filter.DateFrom.StartIn(s.settings.location)
		query.From = &from
	}
	if filter.DateTo != nil {
		to := filter.DateTo.AddDays(1).StartIn(s.settings.location)
		query.To = &to
	}

	items, total, err := repos.Wallets.ListTransactions(ctx, walletID, query)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.TransactionPage{
		Items:      items,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// ReconcileWallet replays the wallet's history and compares it with the
// stored balance.
func (s *LedgerService) ReconcileWallet(ctx context.Context, walletID string) (*domain.WalletReconciliation, error) {
	if err := s.authz.Authorize(ctx, CapViewWallets); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	wallet, err := getWallet(ctx, repos, walletID)
	if err != nil {
		return nil, err
	}
	history, err := repos.Wallets.History(ctx, walletID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report := domain.ReplayLedger(wallet, history)
	if !report.Consistent {
		s.log.Error().
			Str("wallet_id", walletID).
			Str("stored_balance", report.StoredBalance.String()).
			Str("replayed_balance", report.ReplayedBalance.String()).
			Msg("wallet ledger drift detected")
	}
	return report, nil
}

func getWallet(ctx context.Context, repos *repository.Repositories, walletID string) (*domain.Wallet, error) {
	wallet, err := repos.Wallets.GetByID(ctx, walletID)
	if isNotFound(err) {
		return nil, customError.WrapWalletNotFound(walletID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return wallet, nil
}

func lockWallet(ctx context.Context, repos *repository.Repositories, walletID string) (*domain.Wallet, error) {
	wallet, err := repos.Wallets.GetByIDForUpdate(ctx, walletID)
	if isNotFound(err) {
		return nil, customError.WrapWalletNotFound(walletID)
	}
	return wallet, err
}
