package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending   = "PENDING"
	LoanStatusApproved  = "APPROVED"
	LoanStatusRejected  = "REJECTED"
	LoanStatusActive    = "ACTIVE"
	LoanStatusCompleted = "COMPLETED"
	LoanStatusDefaulted = "DEFAULTED"
)

// PaymentFrequency is how often installments fall due.
type PaymentFrequency string

const (
	FrequencyDaily    PaymentFrequency = "DAILY"
	FrequencyWeekly   PaymentFrequency = "WEEKLY"
	FrequencyBiweekly PaymentFrequency = "BIWEEKLY"
	FrequencyMonthly  PaymentFrequency = "MONTHLY"
)

// Valid reports whether f is one of the supported frequencies.
func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Loan represents a loan entity
type Loan struct {
	ID                  string           `json:"id" db:"id"`
	ClientID            string           `json:"client_id" db:"client_id"`
	CollectorID         string           `json:"collector_id" db:"collector_id"`
	Principal           decimal.Decimal  `json:"principal" db:"principal"`
	BaseInterestRate    decimal.Decimal  `json:"base_interest_rate" db:"base_interest_rate"`
	PenaltyInterestRate decimal.Decimal  `json:"penalty_interest_rate" db:"penalty_interest_rate"`
	TotalAmount         decimal.Decimal  `json:"total_amount" db:"total_amount"`
	Currency            string           `json:"currency" db:"currency"`
	PaymentFrequency    PaymentFrequency `json:"payment_frequency" db:"payment_frequency"`
	TotalInstallments   int              `json:"total_installments" db:"total_installments"`
	StartDate           Date             `json:"start_date" db:"start_date"`
	Status              string           `json:"status" db:"status"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether payments can be recorded against the loan.
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID            string           `json:"client_id" validate:"required"`
	CollectorID         string           `json:"collector_id" validate:"required"`
	Principal           decimal.Decimal  `json:"principal" validate:"decimal_gt=0"`
	BaseInterestRate    decimal.Decimal  `json:"base_interest_rate" validate:"decimal_gte=0"`
	PenaltyInterestRate decimal.Decimal  `json:"penalty_interest_rate" validate:"decimal_gte=0"`
	Currency            string           `json:"currency" validate:"omitempty,len=3"`
	PaymentFrequency    PaymentFrequency `json:"payment_frequency" validate:"required,oneof=DAILY WEEKLY BIWEEKLY MONTHLY"`
	TotalInstallments   int              `json:"total_installments" validate:"required,gt=0"`
	StartDate           Date             `json:"start_date"`
	// DisburseFromWalletID debits the principal from this wallet when set.
	DisburseFromWalletID string `json:"disburse_from_wallet_id,omitempty"`
}

type CreateLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*Installment `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type DelinquentResponse struct {
	LoanID       string `json:"loan_id"`
	IsDelinquent bool   `json:"is_delinquent"`
	MissedCount  int    `json:"missed_count"`
}
