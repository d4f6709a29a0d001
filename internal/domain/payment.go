package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentEventPayment = "PAYMENT"
	PaymentEventReset   = "RESET"
)

// PaymentEvent is an append-only record of one payment or one reset on an
// installment. A reset never edits the payment it reverses.
type PaymentEvent struct {
	ID              string          `json:"id" db:"id"`
	InstallmentID   string          `json:"installment_id" db:"installment_id"`
	LoanID          string          `json:"loan_id" db:"loan_id"`
	CollectorID     string          `json:"collector_id" db:"collector_id"`
	WalletID        string          `json:"wallet_id" db:"wallet_id"`
	RouteID         string          `json:"route_id" db:"route_id"`
	Kind            string          `json:"kind" db:"kind"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PaidBefore      decimal.Decimal `json:"paid_before" db:"paid_before"`
	PaidAfter       decimal.Decimal `json:"paid_after" db:"paid_after"`
	RouteDate       Date            `json:"route_date" db:"route_date"`
	Sequence        int64           `json:"sequence" db:"sequence"`
	TransactionID   string          `json:"transaction_id" db:"transaction_id"`
	ReversesEventID *string         `json:"reverses_event_id,omitempty" db:"reverses_event_id"`
	Note            string          `json:"note" db:"note"`
	OccurredAt      time.Time       `json:"occurred_at" db:"occurred_at"`
}

// IsPayment reports whether the event credited the installment.
func (e *PaymentEvent) IsPayment() bool {
	return e.Kind == PaymentEventPayment
}
