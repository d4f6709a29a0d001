package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

func TestLiquidation_UsesOperationalDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.monthlyLoan(t)
	schedule := loan.Schedule

	_, err := f.pay(schedule[0].ID, "collector-1", 6000, baseNow)
	require.NoError(t, err)
	// 23:30 on the 15th in Bogota.
	_, err = f.pay(schedule[0].ID, "collector-1", 4000, time.Date(2024, 1, 16, 4, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	jan16 := time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)
	_, err = f.pay(schedule[1].ID, "collector-1", 10000, jan16)
	require.NoError(t, err)
	_, err = f.reset(schedule[1].ID, jan16.Add(time.Hour))
	require.NoError(t, err)

	// Deposits are not collections.
	wallet, err := f.ledger.GetWalletByOwner(ctx, "collector-1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyTransaction(ctx, &domain.ApplyTransactionRequest{
		WalletID: wallet.ID, Type: domain.TransactionDeposit, Amount: decimal.NewFromInt(500),
	}, baseNow)
	require.NoError(t, err)

	day := domain.MustParseDate("2024-01-15")
	summary, err := f.liquidation.GetCollectionsSummary(ctx, "collector-1", day, day)
	require.NoError(t, err)
	assertMoney(t, "10000", summary.TotalAmount)
	assert.Equal(t, 2, summary.TotalCollections)
	assert.True(t, summary.From.Equal(time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)))
	assert.True(t, summary.To.Equal(time.Date(2024, 1, 16, 5, 0, 0, 0, time.UTC)))

	summary, err = f.liquidation.GetCollectionsSummary(ctx, "collector-1", day, day.AddDays(1))
	require.NoError(t, err)
	assertMoney(t, "20000", summary.GrossPayments)
	assertMoney(t, "10000", summary.TotalResets)
	assertMoney(t, "10000", summary.TotalAmount)
	assert.Equal(t, 2, summary.TotalCollections)

	liquidation, err := f.liquidation.Liquidate(ctx, "collector-1", day, day, nil)
	require.NoError(t, err)
	assertMoney(t, "10", liquidation.Percentage)
	assertMoney(t, "1000", liquidation.Commission)
	assertMoney(t, "9000", liquidation.NetPayable)

	pct := decimal.RequireFromString("12.5")
	liquidation, err = f.liquidation.Liquidate(ctx, "collector-1", day, day, &pct)
	require.NoError(t, err)
	assertMoney(t, "1250", liquidation.Commission)

	for _, bad := range []string{"-1", "100.01"} {
		pct := decimal.RequireFromString(bad)
		_, err = f.liquidation.Liquidate(ctx, "collector-1", day, day, &pct)
		assertCode(t, err, customError.ErrInvalidPercentage, customError.ErrCodeInvalidPercentage)
	}

	_, err = f.liquidation.GetCollectionsSummary(ctx, "collector-1", day, day.AddDays(-1))
	assertCode(t, err, customError.ErrInvalidRequest, customError.ErrCodeInvalidRequest)
}

func TestLiquidation_CollectorWithoutWallet(t *testing.T) {
	f := newFixture(t)
	day := domain.MustParseDate("2024-01-15")

	liquidation, err := f.liquidation.Liquidate(context.Background(), "collector-9", day, day, nil)
	require.NoError(t, err)
	assert.True(t, liquidation.Summary.TotalAmount.IsZero())
	assert.Zero(t, liquidation.Summary.TotalCollections)
	assert.True(t, liquidation.Commission.IsZero())
}
