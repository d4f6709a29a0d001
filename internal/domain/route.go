package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RouteStatusOpen   = "OPEN"
	RouteStatusClosed = "CLOSED"
)

// ExpenseCategory classifies route expenses.
type ExpenseCategory string

const (
	ExpenseFuel    ExpenseCategory = "COMBUSTIBLE"
	ExpenseMeals   ExpenseCategory = "CONSUMO"
	ExpenseRepairs ExpenseCategory = "REPARACIONES"
	ExpenseOther   ExpenseCategory = "OTROS"
)

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseFuel, ExpenseMeals, ExpenseRepairs, ExpenseOther:
		return true
	}
	return false
}

// CollectionRoute is a collector's worklist for one operational day.
type CollectionRoute struct {
	ID             string          `json:"id" db:"id"`
	CollectorID    string          `json:"collector_id" db:"collector_id"`
	RouteDate      Date            `json:"route_date" db:"route_date"`
	Status         string          `json:"status" db:"status"`
	Items          []*RouteItem    `json:"items" db:"-"`
	Expenses       []*RouteExpense `json:"expenses" db:"-"`
	TotalCollected decimal.Decimal `json:"total_collected" db:"total_collected"`
	TotalExpenses  decimal.Decimal `json:"total_expenses" db:"total_expenses"`
	NetAmount      decimal.Decimal `json:"net_amount" db:"net_amount"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty" db:"closed_at"`
	Notes          string          `json:"notes" db:"notes"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the route still accepts mutations.
func (r *CollectionRoute) IsOpen() bool {
	return r.Status == RouteStatusOpen
}

// Recompute folds items and expenses into the totals. Closed routes keep
// the totals frozen at close time.
func (r *CollectionRoute) Recompute() {
	if !r.IsOpen() {
		return
	}
	collected := decimal.Zero
	for _, item := range r.Items {
		collected = collected.Add(item.AmountCollected)
	}
	expenses := decimal.Zero
	for _, expense := range r.Expenses {
		expenses = expenses.Add(expense.Amount)
	}
	r.TotalCollected = collected
	r.TotalExpenses = expenses
	r.NetAmount = collected.Sub(expenses)
}

// RouteItem is one installment visited on a route and what was collected.
type RouteItem struct {
	ID              string          `json:"id" db:"id"`
	RouteID         string          `json:"route_id" db:"route_id"`
	InstallmentID   string          `json:"installment_id" db:"installment_id"`
	Position        int             `json:"position" db:"position"`
	AmountCollected decimal.Decimal `json:"amount_collected" db:"amount_collected"`
}

// RouteExpense is a cost incurred while working a route.
type RouteExpense struct {
	ID          string          `json:"id" db:"id"`
	RouteID     string          `json:"route_id" db:"route_id"`
	Category    ExpenseCategory `json:"category" db:"category"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type ExpenseRequest struct {
	Category    ExpenseCategory `json:"category" validate:"required,oneof=COMBUSTIBLE CONSUMO REPARACIONES OTROS"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Description string          `json:"description" validate:"max=500"`
}

type CloseRouteRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type ReorderItemsRequest struct {
	InstallmentIDs []string `json:"installment_ids" validate:"required,dive,required"`
}

type OpenRouteRequest struct {
	CollectorID string `json:"collector_id" validate:"required"`
	RouteDate   Date   `json:"route_date"`
}
