package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/segyhp/collection-engine/internal/domain"
)

const loanColumns = `id, client_id, collector_id, principal, base_interest_rate, penalty_interest_rate,
	total_amount, currency, payment_frequency, total_installments, start_date, status, created_at, updated_at`

type loanRepository struct {
	db dbtx
}

func NewLoanRepository(db dbtx) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		loan.ID,
		loan.ClientID,
		loan.CollectorID,
		loan.Principal,
		loan.BaseInterestRate,
		loan.PenaltyInterestRate,
		loan.TotalAmount,
		loan.Currency,
		loan.PaymentFrequency,
		loan.TotalInstallments,
		loan.StartDate,
		loan.Status,
		utc(loan.CreatedAt),
		utc(loan.UpdatedAt),
	)

	return translate(err)
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateStatus(ctx context.Context, id, status string, now time.Time) error {
	query := `UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), status, utc(now), id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}

func (r *loanRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = ? ORDER BY created_at, id`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(query), status); err != nil {
		return nil, err
	}

	return loans, nil
}

// utc normalizes timestamps before they are written so text-backed
// drivers keep them in sortable order.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
