package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

// The handlers depend on these narrow views of the services so they can be
// tested against mocks.

type LoanService interface {
	CreateLoan(ctx context.Context, req *domain.CreateLoanRequest, now time.Time) (*domain.CreateLoanResponse, error)
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	GetInstallments(ctx context.Context, loanID string, now time.Time) ([]*domain.Installment, error)
	GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error)
	IsDelinquent(ctx context.Context, loanID string, now time.Time) (*domain.DelinquentResponse, error)
	ListActiveLoans(ctx context.Context) ([]*domain.Loan, error)
}

type PaymentService interface {
	RecordPayment(ctx context.Context, req *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentResult, error)
	ResetPayment(ctx context.Context, req *domain.ResetPaymentRequest, now time.Time) (*domain.PaymentResult, error)
	History(ctx context.Context, installmentID string) ([]*domain.PaymentEvent, error)
}

type LedgerService interface {
	CreateWallet(ctx context.Context, req *domain.CreateWalletRequest, now time.Time) (*domain.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)
	ApplyTransaction(ctx context.Context, req *domain.ApplyTransactionRequest, now time.Time) (*domain.WalletTransaction, error)
	Transfer(ctx context.Context, req *domain.TransferRequest, now time.Time) (*domain.TransferResult, error)
	GetTransactions(ctx context.Context, walletID string, filter domain.TransactionFilter) (*domain.TransactionPage, error)
	ReconcileWallet(ctx context.Context, walletID string) (*domain.WalletReconciliation, error)
}

type RouteService interface {
	GetOrCreateRoute(ctx context.Context, collectorID string, date domain.Date, now time.Time) (*domain.CollectionRoute, error)
	GetRoute(ctx context.Context, routeID string) (*domain.CollectionRoute, error)
	ListRoutes(ctx context.Context, collectorID string, from, to domain.Date) ([]*domain.CollectionRoute, error)
	AddExpense(ctx context.Context, routeID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error)
	UpdateExpense(ctx context.Context, routeID, expenseID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error)
	DeleteExpense(ctx context.Context, routeID, expenseID string, now time.Time) error
	CloseRoute(ctx context.Context, routeID, notes string, now time.Time) (*domain.CollectionRoute, error)
	ReorderItems(ctx context.Context, routeID string, installmentIDs []string, now time.Time) (*domain.CollectionRoute, error)
}

type LiquidationService interface {
	GetCollectionsSummary(ctx context.Context, collectorID string, start, end domain.Date) (*domain.CollectionsSummary, error)
	Liquidate(ctx context.Context, collectorID string, start, end domain.Date, percentage *decimal.Decimal) (*domain.Liquidation, error)
}
