package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// settings are the business knobs every service reads from config.
type settings struct {
	location             *time.Location
	resetWindow          time.Duration
	delinquencyThreshold int
	commission           decimal.Decimal
	currency             string
}

func settingsFrom(cfg *config.Config) settings {
	return settings{
		location:             cfg.GetOperationalLocation(),
		resetWindow:          cfg.GetResetWindow(),
		delinquencyThreshold: cfg.Business.DelinquencyThreshold,
		commission:           cfg.GetDefaultCommissionPercentage(),
		currency:             cfg.Business.DefaultCurrency,
	}
}

// today is the operational calendar day of now.
func (s settings) today(now time.Time) domain.Date {
	return domain.DateOf(now, s.location)
}

// storeError passes business errors through and classifies the rest.
func storeError(err error, entity, id string) error {
	var be *customError.BusinessError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &be):
		return err
	case errors.Is(err, repository.ErrVersionConflict):
		return customError.WrapStaleState(entity, id)
	default:
		return customError.WrapDatabaseError(err)
	}
}

// isNotFound reports whether a repository lookup found no row.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// checkVersion compares a caller-supplied version with the stored one.
func checkVersion(expected *int64, actual int64, entity, id string) error {
	if expected != nil && *expected != actual {
		return customError.WrapStaleState(entity, id)
	}
	return nil
}

// walletForOwner returns the owner's wallet, creating an empty one on first use.
func walletForOwner(ctx context.Context, repos *repository.Repositories, ownerID, currency string, now time.Time) (*domain.Wallet, error) {
	wallet, err := repos.Wallets.GetByOwnerID(ctx, ownerID)
	if err == nil {
		return repos.Wallets.GetByIDForUpdate(ctx, wallet.ID)
	}
	if !isNotFound(err) {
		return nil, err
	}

	wallet = &domain.Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		Currency:  currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, repository.ErrVersionConflict
		}
		return nil, err
	}
	return wallet, nil
}

// ledgerEntry describes one row to append to a wallet. ID is generated
// when empty.
type ledgerEntry struct {
	ID                   string
	Type                 domain.TransactionType
	Amount               decimal.Decimal
	RelatedInstallmentID *string
	RelatedTransactionID *string
	Description          string
}

// applyToWallet appends a ledger row and moves the balance. wallet must have
// been read inside the same transaction; its version guards the update.
func applyToWallet(ctx context.Context, repos *repository.Repositories, wallet *domain.Wallet, entry ledgerEntry, now time.Time) (*domain.WalletTransaction, error) {
	if !entry.Type.Valid() {
		return nil, customError.WrapInvalidRequest("unknown transaction type " + string(entry.Type))
	}
	if !entry.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(entry.Amount.String())
	}

	signed := entry.Type.Signed(entry.Amount)
	after := wallet.Balance.Add(signed)
	if entry.Type.RequiresCover() && after.IsNegative() {
		return nil, customError.WrapInsufficientFunds(wallet.ID, wallet.Balance.String(), entry.Amount.String())
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx := &domain.WalletTransaction{
		ID:                   id,
		WalletID:             wallet.ID,
		Sequence:             wallet.Version,
		Type:                 entry.Type,
		Amount:               entry.Amount,
		SignedAmount:         signed,
		BalanceBefore:        wallet.Balance,
		BalanceAfter:         after,
		RelatedInstallmentID: entry.RelatedInstallmentID,
		RelatedTransactionID: entry.RelatedTransactionID,
		Description:          entry.Description,
		OccurredAt:           now,
	}
	if err := repos.Wallets.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	wallet.Balance = after
	wallet.UpdatedAt = now
	if err := repos.Wallets.UpdateBalance(ctx, wallet); err != nil {
		return nil, err
	}
	return tx, nil
}
