package repository

import (
	"context"

	"github.com/segyhp/collection-engine/internal/domain"
)

const installmentColumns = `id, loan_id, payment_number, principal_portion, total_amount_due, due_date,
	payment_state, paid_amount, paid_at, version, created_at, updated_at`

type installmentRepository struct {
	db dbtx
}

func NewInstallmentRepository(db dbtx) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	query := r.db.Rebind(`
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	for _, installment := range installments {
		_, err := r.db.ExecContext(ctx, query,
			installment.ID,
			installment.LoanID,
			installment.PaymentNumber,
			installment.PrincipalPortion,
			installment.TotalAmountDue,
			installment.DueDate,
			installment.PaymentState,
			installment.PaidAmount,
			utcPtr(installment.PaidAt),
			installment.Version,
			utc(installment.CreatedAt),
			utc(installment.UpdatedAt),
		)
		if err != nil {
			return translate(err)
		}
	}

	return nil
}

func (r *installmentRepository) GetByID(ctx context.Context, id string) (*domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = ?`

	var installment domain.Installment
	if err := r.db.GetContext(ctx, &installment, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE loan_id = ? ORDER BY payment_number`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, r.db.Rebind(query), loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) FirstUnpaidBefore(ctx context.Context, loanID string, paymentNumber int) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = ? AND payment_number < ? AND payment_state <> ?
		ORDER BY payment_number
		LIMIT 1
	`

	var installment domain.Installment
	err := r.db.GetContext(ctx, &installment, r.db.Rebind(query), loanID, paymentNumber, domain.InstallmentStatusPaid)
	if err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) FirstPaidAfter(ctx context.Context, loanID string, paymentNumber int) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = ? AND payment_number > ? AND payment_state <> ?
		ORDER BY payment_number
		LIMIT 1
	`

	var installment domain.Installment
	err := r.db.GetContext(ctx, &installment, r.db.Rebind(query), loanID, paymentNumber, domain.InstallmentStatusPending)
	if err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) UpdatePayment(ctx context.Context, installment *domain.Installment) error {
	query := `
		UPDATE installments
		SET paid_amount = ?, payment_state = ?, paid_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		installment.PaidAmount,
		installment.PaymentState,
		utcPtr(installment.PaidAt),
		utc(installment.UpdatedAt),
		installment.ID,
		installment.Version,
	)
	if err != nil {
		return translate(err)
	}
	if err := expectOne(res, ErrVersionConflict); err != nil {
		return err
	}

	installment.Version++
	return nil
}

func (r *installmentRepository) CountUnpaid(ctx context.Context, loanID string) (int, error) {
	query := `SELECT COUNT(*) FROM installments WHERE loan_id = ? AND payment_state <> ?`

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), loanID, domain.InstallmentStatusPaid); err != nil {
		return 0, err
	}

	return count, nil
}
