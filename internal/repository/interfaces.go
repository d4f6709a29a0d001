package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// UpdateStatus moves a loan to a new lifecycle status
	UpdateStatus(ctx context.Context, id, status string, now time.Time) error

	// ListByStatus returns loans in the given status ordered by creation
	ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error)
}

// InstallmentRepository defines the interface for schedule data operations
type InstallmentRepository interface {
	// CreateBatch persists a generated schedule
	CreateBatch(ctx context.Context, installments []*domain.Installment) error

	// GetByID retrieves an installment by its ID
	GetByID(ctx context.Context, id string) (*domain.Installment, error)

	// GetByLoanID retrieves a loan's schedule ordered by payment number
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error)

	// FirstUnpaidBefore returns the lowest-numbered unpaid installment of the
	// loan that precedes paymentNumber, or sql.ErrNoRows when there is none
	FirstUnpaidBefore(ctx context.Context, loanID string, paymentNumber int) (*domain.Installment, error)

	// FirstPaidAfter returns the lowest-numbered installment following
	// paymentNumber that has taken any money, or sql.ErrNoRows
	FirstPaidAfter(ctx context.Context, loanID string, paymentNumber int) (*domain.Installment, error)

	// UpdatePayment stores the paid amount and state when the row is still at
	// installment.Version, and bumps the version
	UpdatePayment(ctx context.Context, installment *domain.Installment) error

	// CountUnpaid counts installments of a loan that are not fully paid
	CountUnpaid(ctx context.Context, loanID string) (int, error)
}

// PaymentEventRepository defines the interface for the payment audit trail
type PaymentEventRepository interface {
	// Create appends an event
	Create(ctx context.Context, event *domain.PaymentEvent) error

	// Latest returns the most recent event for an installment
	Latest(ctx context.Context, installmentID string) (*domain.PaymentEvent, error)

	// ListByInstallment returns an installment's events in sequence order
	ListByInstallment(ctx context.Context, installmentID string) ([]*domain.PaymentEvent, error)
}

// TransactionQuery narrows a wallet transaction listing
type TransactionQuery struct {
	Types  []domain.TransactionType
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// WalletRepository defines the interface for wallet and ledger operations
type WalletRepository interface {
	// Create creates a new wallet
	Create(ctx context.Context, wallet *domain.Wallet) error

	// GetByID retrieves a wallet by its ID
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)

	// GetByIDForUpdate retrieves a wallet and locks its row where the driver
	// supports row locks
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Wallet, error)

	// GetByOwnerID retrieves the wallet owned by a user
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error)

	// UpdateBalance stores a new balance when the row is still at
	// wallet.Version, and bumps the version
	UpdateBalance(ctx context.Context, wallet *domain.Wallet) error

	// CreateTransaction appends a ledger row
	CreateTransaction(ctx context.Context, tx *domain.WalletTransaction) error

	// GetTransaction retrieves a ledger row by its ID
	GetTransaction(ctx context.Context, id string) (*domain.WalletTransaction, error)

	// ListTransactions returns one page of ledger rows, newest first, and the
	// total number of matching rows
	ListTransactions(ctx context.Context, walletID string, q TransactionQuery) ([]*domain.WalletTransaction, int, error)

	// History returns every ledger row of a wallet in sequence order
	History(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error)
}

// RouteRepository defines the interface for collection route operations
type RouteRepository interface {
	// Create creates a new route
	Create(ctx context.Context, route *domain.CollectionRoute) error

	// GetByID retrieves a route header by its ID
	GetByID(ctx context.Context, id string) (*domain.CollectionRoute, error)

	// GetByCollectorAndDate retrieves a collector's route for one day
	GetByCollectorAndDate(ctx context.Context, collectorID string, date domain.Date) (*domain.CollectionRoute, error)

	// ListByCollector returns a collector's routes within [from, to], newest first
	ListByCollector(ctx context.Context, collectorID string, from, to domain.Date) ([]*domain.CollectionRoute, error)

	// ListOpenBefore returns open routes dated before the given day
	ListOpenBefore(ctx context.Context, date domain.Date) ([]*domain.CollectionRoute, error)

	// Touch bumps the version of an open route. It returns ErrRouteNotOpen
	// when the route is closed, which serializes mutations against closing
	Touch(ctx context.Context, routeID string, now time.Time) error

	// Close freezes an open route with the given totals
	Close(ctx context.Context, route *domain.CollectionRoute) error

	// GetItems returns a route's items ordered by position
	GetItems(ctx context.Context, routeID string) ([]*domain.RouteItem, error)

	// GetItem retrieves the item for an installment on a route
	GetItem(ctx context.Context, routeID, installmentID string) (*domain.RouteItem, error)

	// CreateItem appends an item at the end of the route
	CreateItem(ctx context.Context, item *domain.RouteItem) error

	// UpdateItemAmount stores a new collected amount for an item
	UpdateItemAmount(ctx context.Context, itemID string, amount decimal.Decimal) error

	// UpdateItemPosition moves an item
	UpdateItemPosition(ctx context.Context, itemID string, position int) error

	// DeleteItem removes an item
	DeleteItem(ctx context.Context, itemID string) error

	// GetExpenses returns a route's expenses in creation order
	GetExpenses(ctx context.Context, routeID string) ([]*domain.RouteExpense, error)

	// GetExpense retrieves an expense by its ID
	GetExpense(ctx context.Context, id string) (*domain.RouteExpense, error)

	// CreateExpense records an expense
	CreateExpense(ctx context.Context, expense *domain.RouteExpense) error

	// UpdateExpense stores an edited expense
	UpdateExpense(ctx context.Context, expense *domain.RouteExpense) error

	// DeleteExpense removes an expense
	DeleteExpense(ctx context.Context, id string) error
}
