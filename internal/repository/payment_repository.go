package repository

import (
	"context"

	"github.com/segyhp/collection-engine/internal/domain"
)

const paymentEventColumns = `id, installment_id, loan_id, collector_id, wallet_id, route_id, kind, amount,
	paid_before, paid_after, route_date, sequence, transaction_id, reverses_event_id, note, occurred_at`

type paymentEventRepository struct {
	db dbtx
}

func NewPaymentEventRepository(db dbtx) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

func (r *paymentEventRepository) Create(ctx context.Context, event *domain.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (` + paymentEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		event.ID,
		event.InstallmentID,
		event.LoanID,
		event.CollectorID,
		event.WalletID,
		event.RouteID,
		event.Kind,
		event.Amount,
		event.PaidBefore,
		event.PaidAfter,
		event.RouteDate,
		event.Sequence,
		event.TransactionID,
		event.ReversesEventID,
		event.Note,
		utc(event.OccurredAt),
	)

	// A duplicate sequence means another writer appended first.
	if err = translate(err); isDuplicate(err) {
		return ErrVersionConflict
	}
	return err
}

func (r *paymentEventRepository) Latest(ctx context.Context, installmentID string) (*domain.PaymentEvent, error) {
	query := `
		SELECT ` + paymentEventColumns + `
		FROM payment_events
		WHERE installment_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`

	var event domain.PaymentEvent
	if err := r.db.GetContext(ctx, &event, r.db.Rebind(query), installmentID); err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *paymentEventRepository) ListByInstallment(ctx context.Context, installmentID string) ([]*domain.PaymentEvent, error) {
	query := `SELECT ` + paymentEventColumns + ` FROM payment_events WHERE installment_id = ? ORDER BY sequence`

	var events []*domain.PaymentEvent
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(query), installmentID); err != nil {
		return nil, err
	}

	return events, nil
}
