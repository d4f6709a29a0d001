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

func TestCreateLoan_PersistsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.monthlyLoan(t)

	assert.Equal(t, domain.LoanStatusActive, resp.Loan.Status)
	assert.Equal(t, "COP", resp.Loan.Currency)
	assertMoney(t, "60000", resp.Loan.TotalAmount)
	require.Len(t, resp.Schedule, 6)
	assert.Equal(t, domain.MustParseDate("2024-06-15"), resp.Schedule[5].DueDate)

	loan, err := f.loans.GetLoan(ctx, resp.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Loan.ID, loan.ID)
	assert.Equal(t, domain.FrequencyMonthly, loan.PaymentFrequency)

	installments, err := f.loans.GetInstallments(ctx, loan.ID, baseNow)
	require.NoError(t, err)
	require.Len(t, installments, 6)
	total := decimal.Zero
	for i, installment := range installments {
		assert.Equal(t, i+1, installment.PaymentNumber)
		assert.Equal(t, domain.InstallmentStatusPending, installment.Status)
		total = total.Add(installment.TotalAmountDue)
	}
	assertMoney(t, "60000", total)

	outstanding, err := f.loans.GetOutstanding(ctx, loan.ID)
	require.NoError(t, err)
	assertMoney(t, "60000", outstanding.Outstanding)

	active, err := f.loans.ListActiveLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = f.loans.GetLoan(ctx, "missing")
	assertCode(t, err, customError.ErrLoanNotFound, customError.ErrCodeLoanNotFound)
	_, err = f.loans.GetInstallments(ctx, "missing", baseNow)
	assertCode(t, err, customError.ErrLoanNotFound, customError.ErrCodeLoanNotFound)
}

func TestCreateLoan_DefaultsStartDateToOperationalToday(t *testing.T) {
	f := newFixture(t)

	// 23:30 in Bogota on the 15th is already the 16th in UTC.
	now := time.Date(2024, 1, 16, 4, 30, 0, 0, time.UTC)
	resp, err := f.loans.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		ClientID:          "client-1",
		CollectorID:       "collector-1",
		Principal:         decimal.NewFromInt(1000),
		BaseInterestRate:  decimal.RequireFromString("0.10"),
		PaymentFrequency:  domain.FrequencyDaily,
		TotalInstallments: 3,
		Currency:          "USD",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.MustParseDate("2024-01-15"), resp.Loan.StartDate)
	assert.Equal(t, domain.MustParseDate("2024-01-17"), resp.Schedule[2].DueDate)
	assert.Equal(t, "USD", resp.Loan.Currency)
	assertMoney(t, "366.66", resp.Schedule[0].TotalAmountDue)
	assertMoney(t, "366.68", resp.Schedule[2].TotalAmountDue)
}

func TestCreateLoan_RejectsInvalidTerms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := domain.CreateLoanRequest{
		ClientID:          "client-1",
		CollectorID:       "collector-1",
		Principal:         decimal.NewFromInt(1000),
		BaseInterestRate:  decimal.RequireFromString("0.10"),
		PaymentFrequency:  domain.FrequencyWeekly,
		TotalInstallments: 4,
	}

	cases := map[string]func(r *domain.CreateLoanRequest){
		"zero installments":  func(r *domain.CreateLoanRequest) { r.TotalInstallments = 0 },
		"zero principal":     func(r *domain.CreateLoanRequest) { r.Principal = decimal.Zero },
		"negative rate":      func(r *domain.CreateLoanRequest) { r.BaseInterestRate = decimal.NewFromInt(-1) },
		"negative penalty":   func(r *domain.CreateLoanRequest) { r.PenaltyInterestRate = decimal.NewFromInt(-1) },
		"unknown frequency":  func(r *domain.CreateLoanRequest) { r.PaymentFrequency = "YEARLY" },
		"too many for total": func(r *domain.CreateLoanRequest) { r.Principal = decimal.RequireFromString("0.01") },
		"sub-cent principal": func(r *domain.CreateLoanRequest) { r.Principal = decimal.RequireFromString("100.001") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			mutate(&req)
			_, err := f.loans.CreateLoan(ctx, &req, baseNow)
			assertCode(t, err, customError.ErrInvalidLoanTerms, customError.ErrCodeInvalidLoanTerms)
		})
	}

	active, err := f.loans.ListActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateLoan_Disbursement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet := f.fundedWallet(t, "subadmin-1", 40000)

	req := &domain.CreateLoanRequest{
		ClientID:             "client-1",
		CollectorID:          "collector-1",
		Principal:            decimal.NewFromInt(50000),
		BaseInterestRate:     decimal.RequireFromString("0.20"),
		PaymentFrequency:     domain.FrequencyMonthly,
		TotalInstallments:    6,
		DisburseFromWalletID: wallet.ID,
	}

	// Uncovered disbursement leaves no loan behind.
	_, err := f.loans.CreateLoan(ctx, req, baseNow)
	assertCode(t, err, customError.ErrInsufficientFunds, customError.ErrCodeInsufficientFunds)
	active, err := f.loans.ListActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assertMoney(t, "40000", f.balanceOf(t, "subadmin-1"))

	req.Principal = decimal.NewFromInt(30000)
	resp, err := f.loans.CreateLoan(ctx, req, baseNow)
	require.NoError(t, err)
	assertMoney(t, "10000", f.balanceOf(t, "subadmin-1"))

	disbursement := domain.TransactionLoanDisbursement
	page, err := f.ledger.GetTransactions(ctx, wallet.ID, domain.TransactionFilter{Type: &disbursement})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assertMoney(t, "30000", page.Items[0].Amount)
	assert.Contains(t, page.Items[0].Description, resp.Loan.ID)

	req.DisburseFromWalletID = "missing"
	_, err = f.loans.CreateLoan(ctx, req, baseNow)
	assertCode(t, err, customError.ErrWalletNotFound, customError.ErrCodeWalletNotFound)
}

func TestIsDelinquent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.monthlyLoan(t)
	schedule := loan.Schedule

	_, err := f.pay(schedule[0].ID, "collector-1", 4000, baseNow)
	require.NoError(t, err)

	feb20 := time.Date(2024, 2, 20, 15, 0, 0, 0, time.UTC)
	installments, err := f.loans.GetInstallments(ctx, loan.Loan.ID, feb20)
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPartial, installments[0].Status)
	assert.Equal(t, domain.InstallmentStatusOverdue, installments[1].Status)
	assert.Equal(t, domain.InstallmentStatusPending, installments[2].Status)

	// The partial January installment and February make two in a row.
	status, err := f.loans.IsDelinquent(ctx, loan.Loan.ID, feb20)
	require.NoError(t, err)
	assert.True(t, status.IsDelinquent)
	assert.Equal(t, 2, status.MissedCount)

	_, err = f.pay(schedule[0].ID, "collector-1", 6000, feb20)
	require.NoError(t, err)
	status, err = f.loans.IsDelinquent(ctx, loan.Loan.ID, feb20)
	require.NoError(t, err)
	assert.False(t, status.IsDelinquent)
	assert.Equal(t, 1, status.MissedCount)

	// Due today is not yet missed.
	mar15 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	status, err = f.loans.IsDelinquent(ctx, loan.Loan.ID, mar15)
	require.NoError(t, err)
	assert.Equal(t, 1, status.MissedCount)

	mar16 := mar15.Add(24 * time.Hour)
	status, err = f.loans.IsDelinquent(ctx, loan.Loan.ID, mar16)
	require.NoError(t, err)
	assert.True(t, status.IsDelinquent)

	delinquent, err := f.loans.ListDelinquentLoans(ctx, mar16)
	require.NoError(t, err)
	require.Len(t, delinquent, 1)
	assert.Equal(t, loan.Loan.ID, delinquent[0].LoanID)

	_, err = f.loans.IsDelinquent(ctx, "missing", mar16)
	assertCode(t, err, customError.ErrLoanNotFound, customError.ErrCodeLoanNotFound)
}
