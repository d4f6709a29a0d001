package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

const (
	routeColumns = `id, collector_id, route_date, status, total_collected, total_expenses, net_amount,
	closed_at, notes, version, created_at, updated_at`
	routeItemColumns    = `id, route_id, installment_id, position, amount_collected`
	routeExpenseColumns = `id, route_id, category, amount, description, created_at, updated_at`
)

type routeRepository struct {
	db dbtx
}

func NewRouteRepository(db dbtx) RouteRepository {
	return &routeRepository{db: db}
}

func (r *routeRepository) Create(ctx context.Context, route *domain.CollectionRoute) error {
	query := `INSERT INTO collection_routes (` + routeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		route.ID,
		route.CollectorID,
		route.RouteDate,
		route.Status,
		route.TotalCollected,
		route.TotalExpenses,
		route.NetAmount,
		utcPtr(route.ClosedAt),
		route.Notes,
		route.Version,
		utc(route.CreatedAt),
		utc(route.UpdatedAt),
	)

	return translate(err)
}

func (r *routeRepository) GetByID(ctx context.Context, id string) (*domain.CollectionRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM collection_routes WHERE id = ?`

	var route domain.CollectionRoute
	if err := r.db.GetContext(ctx, &route, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &route, nil
}

func (r *routeRepository) GetByCollectorAndDate(ctx context.Context, collectorID string, date domain.Date) (*domain.CollectionRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM collection_routes WHERE collector_id = ? AND route_date = ?`

	var route domain.CollectionRoute
	if err := r.db.GetContext(ctx, &route, r.db.Rebind(query), collectorID, date); err != nil {
		return nil, err
	}

	return &route, nil
}

func (r *routeRepository) ListByCollector(ctx context.Context, collectorID string, from, to domain.Date) ([]*domain.CollectionRoute, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM collection_routes
		WHERE collector_id = ? AND route_date >= ? AND route_date <= ?
		ORDER BY route_date DESC
	`

	routes := []*domain.CollectionRoute{}
	if err := r.db.SelectContext(ctx, &routes, r.db.Rebind(query), collectorID, from, to); err != nil {
		return nil, err
	}

	return routes, nil
}

func (r *routeRepository) ListOpenBefore(ctx context.Context, date domain.Date) ([]*domain.CollectionRoute, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM collection_routes
		WHERE status = ? AND route_date < ?
		ORDER BY route_date, id
	`

	var routes []*domain.CollectionRoute
	if err := r.db.SelectContext(ctx, &routes, r.db.Rebind(query), domain.RouteStatusOpen, date); err != nil {
		return nil, err
	}

	return routes, nil
}

func (r *routeRepository) Touch(ctx context.Context, routeID string, now time.Time) error {
	query := `
		UPDATE collection_routes
		SET version = version + 1, updated_at = ?
		WHERE id = ? AND status = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), utc(now), routeID, domain.RouteStatusOpen)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, ErrRouteNotOpen)
}

func (r *routeRepository) Close(ctx context.Context, route *domain.CollectionRoute) error {
	query := `
		UPDATE collection_routes
		SET status = ?, total_collected = ?, total_expenses = ?, net_amount = ?, closed_at = ?, notes = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND status = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		domain.RouteStatusClosed,
		route.TotalCollected,
		route.TotalExpenses,
		route.NetAmount,
		utcPtr(route.ClosedAt),
		route.Notes,
		utc(route.UpdatedAt),
		route.ID,
		domain.RouteStatusOpen,
	)
	if err != nil {
		return translate(err)
	}
	if err := expectOne(res, ErrRouteNotOpen); err != nil {
		return err
	}

	route.Status = domain.RouteStatusClosed
	route.Version++
	return nil
}

func (r *routeRepository) GetItems(ctx context.Context, routeID string) ([]*domain.RouteItem, error) {
	query := `SELECT ` + routeItemColumns + ` FROM route_items WHERE route_id = ? ORDER BY position, id`

	items := []*domain.RouteItem{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), routeID); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *routeRepository) GetItem(ctx context.Context, routeID, installmentID string) (*domain.RouteItem, error) {
	query := `SELECT ` + routeItemColumns + ` FROM route_items WHERE route_id = ? AND installment_id = ?`

	var item domain.RouteItem
	if err := r.db.GetContext(ctx, &item, r.db.Rebind(query), routeID, installmentID); err != nil {
		return nil, err
	}

	return &item, nil
}

// CreateItem assigns the next free position on the route.
func (r *routeRepository) CreateItem(ctx context.Context, item *domain.RouteItem) error {
	var last sql.NullInt64
	maxQuery := `SELECT MAX(position) FROM route_items WHERE route_id = ?`
	if err := r.db.GetContext(ctx, &last, r.db.Rebind(maxQuery), item.RouteID); err != nil {
		return err
	}
	item.Position = int(last.Int64) + 1

	query := `INSERT INTO route_items (` + routeItemColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		item.ID,
		item.RouteID,
		item.InstallmentID,
		item.Position,
		item.AmountCollected,
	)

	return translate(err)
}

func (r *routeRepository) UpdateItemAmount(ctx context.Context, itemID string, amount decimal.Decimal) error {
	query := `UPDATE route_items SET amount_collected = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), amount, itemID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}

func (r *routeRepository) UpdateItemPosition(ctx context.Context, itemID string, position int) error {
	query := `UPDATE route_items SET position = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), position, itemID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}

func (r *routeRepository) DeleteItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM route_items WHERE id = ?`), itemID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}

func (r *routeRepository) GetExpenses(ctx context.Context, routeID string) ([]*domain.RouteExpense, error) {
	query := `SELECT ` + routeExpenseColumns + ` FROM route_expenses WHERE route_id = ? ORDER BY created_at, id`

	expenses := []*domain.RouteExpense{}
	if err := r.db.SelectContext(ctx, &expenses, r.db.Rebind(query), routeID); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (r *routeRepository) GetExpense(ctx context.Context, id string) (*domain.RouteExpense, error) {
	query := `SELECT ` + routeExpenseColumns + ` FROM route_expenses WHERE id = ?`

	var expense domain.RouteExpense
	if err := r.db.GetContext(ctx, &expense, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &expense, nil
}

func (r *routeRepository) CreateExpense(ctx context.Context, expense *domain.RouteExpense) error {
	query := `INSERT INTO route_expenses (` + routeExpenseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		expense.ID,
		expense.RouteID,
		expense.Category,
		expense.Amount,
		expense.Description,
		utc(expense.CreatedAt),
		utc(expense.UpdatedAt),
	)

	return translate(err)
}

func (r *routeRepository) UpdateExpense(ctx context.Context, expense *domain.RouteExpense) error {
	query := `UPDATE route_expenses SET category = ?, amount = ?, description = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		expense.Category,
		expense.Amount,
		expense.Description,
		utc(expense.UpdatedAt),
		expense.ID,
	)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}

func (r *routeRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM route_expenses WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res, sql.ErrNoRows)
}
