package domain

import (
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

var maxPercentage = decimal.NewFromInt(100)

// CollectionsSummary is the net collected by a collector over a day range.
type CollectionsSummary struct {
	CollectorID      string          `json:"collector_id"`
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalCollections int             `json:"total_collections"`
	GrossPayments    decimal.Decimal `json:"gross_payments"`
	TotalResets      decimal.Decimal `json:"total_resets"`
}

// Liquidation is a settled commission over a summary.
type Liquidation struct {
	Summary    *CollectionsSummary `json:"summary"`
	Percentage decimal.Decimal     `json:"percentage"`
	Commission decimal.Decimal     `json:"commission"`
	NetPayable decimal.Decimal     `json:"net_payable"`
}

// SummarizeCollections folds a collector's ledger rows into a summary.
// Only LOAN_PAYMENT and PAYMENT_RESET rows contribute.
func SummarizeCollections(summary *CollectionsSummary, history []*WalletTransaction) *CollectionsSummary {
	payments, resets := decimal.Zero, decimal.Zero
	count := 0
	for _, tx := range history {
		switch tx.Type {
		case TransactionLoanPayment:
			payments = payments.Add(tx.Amount)
			count++
		case TransactionPaymentReset:
			resets = resets.Add(tx.Amount)
			count--
		}
	}
	summary.GrossPayments = payments
	summary.TotalResets = resets
	summary.TotalAmount = payments.Sub(resets)
	summary.TotalCollections = count
	return summary
}

// CalculateCommission returns totalAmount * percentage / 100.
func CalculateCommission(totalAmount, percentage decimal.Decimal) (decimal.Decimal, error) {
	if percentage.IsNegative() || percentage.GreaterThan(maxPercentage) {
		return decimal.Zero, customError.WrapInvalidPercentage(percentage.String())
	}
	return utils.PercentageOf(totalAmount, percentage), nil
}

type LiquidationRequest struct {
	StartDate  Date             `json:"start_date"`
	EndDate    Date             `json:"end_date"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}
