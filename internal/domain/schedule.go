package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// ScheduleTerms are the loan terms the schedule is generated from.
type ScheduleTerms struct {
	LoanID            string
	Principal         decimal.Decimal
	BaseInterestRate  decimal.Decimal
	TotalInstallments int
	Frequency         PaymentFrequency
	StartDate         Date
}

// DueDate returns the due date of installment number n (1-based).
func DueDate(start Date, frequency PaymentFrequency, n int) Date {
	offset := n - 1
	switch frequency {
	case FrequencyDaily:
		return start.AddDays(offset)
	case FrequencyWeekly:
		return start.AddDays(7 * offset)
	case FrequencyBiweekly:
		return start.AddDays(14 * offset)
	default:
		return start.AddMonths(offset)
	}
}

// GenerateSchedule splits the loan into equal flat installments.
// The last installment absorbs the rounding remainder so both the
// principal portions and the amounts due add up exactly.
func GenerateSchedule(terms ScheduleTerms, now time.Time) ([]*Installment, error) {
	if terms.TotalInstallments <= 0 {
		return nil, customError.WrapInvalidLoanTerms("total installments must be greater than 0")
	}
	if !terms.Principal.IsPositive() {
		return nil, customError.WrapInvalidLoanTerms("principal must be greater than 0")
	}
	if !utils.IsMoney(terms.Principal) {
		return nil, customError.WrapInvalidLoanTerms("principal must not have more than 2 decimal places")
	}
	if terms.BaseInterestRate.IsNegative() {
		return nil, customError.WrapInvalidLoanTerms("interest rate must not be negative")
	}
	if !terms.Frequency.Valid() {
		return nil, customError.WrapInvalidLoanTerms("unknown payment frequency " + string(terms.Frequency))
	}
	if terms.StartDate.IsZero() {
		return nil, customError.WrapInvalidLoanTerms("start date is required")
	}

	totalAmount := utils.CalculateTotalAmount(terms.Principal, terms.BaseInterestRate)
	amountDue, lastAmountDue := utils.SplitEvenly(totalAmount, terms.TotalInstallments)
	principal, lastPrincipal := utils.SplitEvenly(terms.Principal, terms.TotalInstallments)
	if !amountDue.IsPositive() {
		return nil, customError.WrapInvalidLoanTerms("principal is too small to split into that many installments")
	}

	createdAt := now.UTC()
	schedule := make([]*Installment, 0, terms.TotalInstallments)
	for n := 1; n <= terms.TotalInstallments; n++ {
		installment := &Installment{
			ID:               uuid.NewString(),
			LoanID:           terms.LoanID,
			PaymentNumber:    n,
			PrincipalPortion: principal,
			TotalAmountDue:   amountDue,
			DueDate:          DueDate(terms.StartDate, terms.Frequency, n),
			PaymentState:     InstallmentStatusPending,
			Status:           InstallmentStatusPending,
			PaidAmount:       decimal.Zero,
			Version:          1,
			CreatedAt:        createdAt,
			UpdatedAt:        createdAt,
		}
		if n == terms.TotalInstallments {
			installment.PrincipalPortion = lastPrincipal
			installment.TotalAmountDue = lastAmountDue
		}
		schedule = append(schedule, installment)
	}

	return schedule, nil
}
