package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment statuses. PENDING, PARTIAL and PAID are the persisted
// payment state; OVERDUE only ever appears in the derived status.
const (
	InstallmentStatusPending = "PENDING"
	InstallmentStatusPartial = "PARTIAL"
	InstallmentStatusPaid    = "PAID"
	InstallmentStatusOverdue = "OVERDUE"
)

// Installment is one scheduled repayment unit of a loan.
type Installment struct {
	ID               string          `json:"id" db:"id"`
	LoanID           string          `json:"loan_id" db:"loan_id"`
	PaymentNumber    int             `json:"payment_number" db:"payment_number"`
	PrincipalPortion decimal.Decimal `json:"principal_portion" db:"principal_portion"`
	TotalAmountDue   decimal.Decimal `json:"total_amount_due" db:"total_amount_due"`
	DueDate          Date            `json:"due_date" db:"due_date"`
	PaymentState     string          `json:"-" db:"payment_state"`
	Status           string          `json:"status" db:"-"`
	PaidAmount       decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	PaidAt           *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	Version          int64           `json:"version" db:"version"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentStateFor returns the persisted state for a paid amount.
func PaymentStateFor(paid, due decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(due):
		return InstallmentStatusPaid
	case paid.IsPositive():
		return InstallmentStatusPartial
	default:
		return InstallmentStatusPending
	}
}

// StatusOn derives the display status for the given operational day.
// PARTIAL wins over OVERDUE.
func (i *Installment) StatusOn(today Date) string {
	switch state := PaymentStateFor(i.PaidAmount, i.TotalAmountDue); state {
	case InstallmentStatusPaid, InstallmentStatusPartial:
		return state
	}
	if i.DueDate.Before(today) {
		return InstallmentStatusOverdue
	}
	return InstallmentStatusPending
}

// Refresh recomputes Status for today. Call on every read.
func (i *Installment) Refresh(today Date) *Installment {
	i.Status = i.StatusOn(today)
	return i
}

// IsPaid reports whether the full amount has been collected.
func (i *Installment) IsPaid() bool {
	return i.PaidAmount.GreaterThanOrEqual(i.TotalAmountDue)
}

// Remaining is the amount still owed on the installment.
func (i *Installment) Remaining() decimal.Decimal {
	return i.TotalAmountDue.Sub(i.PaidAmount)
}

// ApplyPaidAmount sets the paid amount and the dependent persisted fields.
func (i *Installment) ApplyPaidAmount(paid decimal.Decimal, now time.Time) {
	i.PaidAmount = paid
	i.PaymentState = PaymentStateFor(paid, i.TotalAmountDue)
	if i.PaymentState == InstallmentStatusPaid {
		paidAt := now.UTC()
		i.PaidAt = &paidAt
	} else {
		i.PaidAt = nil
	}
	i.UpdatedAt = now.UTC()
}

type RecordPaymentRequest struct {
	InstallmentID   string          `json:"-"`
	CollectorID     string          `json:"collector_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Note            string          `json:"note" validate:"max=500"`
	ExpectedVersion *int64          `json:"expected_version,omitempty"`
}

type ResetPaymentRequest struct {
	InstallmentID   string `json:"-"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type PaymentResult struct {
	Installment *Installment       `json:"installment"`
	Event       *PaymentEvent      `json:"event"`
	Transaction *WalletTransaction `json:"transaction"`
	RouteID     string             `json:"route_id"`
}
