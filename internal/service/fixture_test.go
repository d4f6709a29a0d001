package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/testutil"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// 10:00 in Bogota on 2024-01-15.
var baseNow = time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			OperationalTimezone:         "America/Bogota",
			ResetWindow:                 "24h",
			DelinquencyThreshold:        2,
			DefaultCommissionPercentage: "10",
			DefaultCurrency:             "COP",
		},
	}
}

type fixture struct {
	store       repository.Store
	loans       *LoanService
	payments    *PaymentService
	ledger      *LedgerService
	routes      *RouteService
	liquidation *LiquidationService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, cache.NoopRouteCache{})
}

func newFixtureWithCache(t *testing.T, routeCache cache.RouteCache) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	cfg := testConfig()
	authz := AllowAll{}

	return &fixture{
		store:       store,
		loans:       NewLoanService(store, authz, cfg),
		payments:    NewPaymentService(store, authz, cfg),
		ledger:      NewLedgerService(store, authz, cfg),
		routes:      NewRouteService(store, routeCache, authz, cfg),
		liquidation: NewLiquidationService(store, authz, cfg),
	}
}

// monthlyLoan is 50000 at 20% over 6 monthly installments of 10000.
func (f *fixture) monthlyLoan(t *testing.T) *domain.CreateLoanResponse {
	t.Helper()
	resp, err := f.loans.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		ClientID:          "client-1",
		CollectorID:       "collector-1",
		Principal:         decimal.NewFromInt(50000),
		BaseInterestRate:  decimal.RequireFromString("0.20"),
		PaymentFrequency:  domain.FrequencyMonthly,
		TotalInstallments: 6,
		StartDate:         domain.MustParseDate("2024-01-15"),
	}, baseNow)
	require.NoError(t, err)
	return resp
}

func (f *fixture) pay(installmentID, collectorID string, amount int64, now time.Time) (*domain.PaymentResult, error) {
	return f.payments.RecordPayment(context.Background(), &domain.RecordPaymentRequest{
		InstallmentID: installmentID,
		CollectorID:   collectorID,
		Amount:        decimal.NewFromInt(amount),
	}, now)
}

func (f *fixture) reset(installmentID string, now time.Time) (*domain.PaymentResult, error) {
	return f.payments.ResetPayment(context.Background(), &domain.ResetPaymentRequest{InstallmentID: installmentID}, now)
}

func (f *fixture) installment(t *testing.T, id string) *domain.Installment {
	t.Helper()
	installment, err := f.store.Repositories().Installments.GetByID(context.Background(), id)
	require.NoError(t, err)
	return installment
}

func (f *fixture) balanceOf(t *testing.T, ownerID string) decimal.Decimal {
	t.Helper()
	wallet, err := f.ledger.GetWalletByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	return wallet.Balance
}

func (f *fixture) fundedWallet(t *testing.T, ownerID string, amount int64) *domain.Wallet {
	t.Helper()
	ctx := context.Background()
	wallet, err := f.ledger.CreateWallet(ctx, &domain.CreateWalletRequest{OwnerID: ownerID}, baseNow)
	require.NoError(t, err)
	if amount > 0 {
		_, err = f.ledger.ApplyTransaction(ctx, &domain.ApplyTransactionRequest{
			WalletID: wallet.ID,
			Type:     domain.TransactionDeposit,
			Amount:   decimal.NewFromInt(amount),
		}, baseNow)
		require.NoError(t, err)
	}
	wallet, err = f.ledger.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	return wallet
}

func assertCode(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "expected %v, got %v", sentinel, err)
	assert.Equal(t, code, customError.Code(err))
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
