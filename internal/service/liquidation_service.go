package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// LiquidationService settles collector commissions from ledger history.
type LiquidationService struct {
	store    repository.Store
	authz    Authorizer
	settings settings
}

func NewLiquidationService(store repository.Store, authz Authorizer, cfg *config.Config) *LiquidationService {
	return &LiquidationService{
		store:    store,
		authz:    authz,
		settings: settingsFrom(cfg),
	}
}

// GetCollectionsSummary nets the collector's payments and resets over the
// inclusive day range [start, end] in the operational timezone.
func (s *LiquidationService) GetCollectionsSummary(ctx context.Context, collectorID string, start, end domain.Date) (*domain.CollectionsSummary, error) {
	if err := s.authz.Authorize(ctx, CapViewCollection); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, customError.WrapInvalidRequest("a valid start and end date are required")
	}

	summary := &domain.CollectionsSummary{
		CollectorID:   collectorID,
		StartDate:     start,
		EndDate:       end,
		From:          start.StartIn(s.settings.location),
		To:            end.AddDays(1).StartIn(s.settings.location),
		TotalAmount:   decimal.Zero,
		GrossPayments: decimal.Zero,
		TotalResets:   decimal.Zero,
	}

	repos := s.store.Repositories()
	wallet, err := repos.Wallets.GetByOwnerID(ctx, collectorID)
	if isNotFound(err) {
		// A collector who never collected has nothing to settle.
		return summary, nil
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	history, _, err := repos.Wallets.ListTransactions(ctx, wallet.ID, repository.TransactionQuery{
		Types: []domain.TransactionType{domain.TransactionLoanPayment, domain.TransactionPaymentReset},
		From:  &summary.From,
		To:    &summary.To,
	})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return domain.SummarizeCollections(summary, history), nil
}

// Liquidate computes the commission over the summary. A nil percentage
// uses the configured default.
func (s *LiquidationService) Liquidate(ctx context.Context, collectorID string, start, end domain.Date, percentage *decimal.Decimal) (*domain.Liquidation, error) {
	if err := s.authz.Authorize(ctx, CapLiquidate); err != nil {
		return nil, err
	}

	pct := s.settings.commission
	if percentage != nil {
		pct = *percentage
	}

	summary, err := s.GetCollectionsSummary(ctx, collectorID, start, end)
	if err != nil {
		return nil, err
	}

	commission, err := domain.CalculateCommission(summary.TotalAmount, pct)
	if err != nil {
		return nil, err
	}

	return &domain.Liquidation{
		Summary:    summary,
		Percentage: pct,
		Commission: commission,
		NetPayable: summary.TotalAmount.Sub(commission),
	}, nil
}
