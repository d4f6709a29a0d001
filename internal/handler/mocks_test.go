package handler_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collection-engine/internal/domain"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest, now time.Time) (*domain.CreateLoanResponse, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateLoanResponse), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetInstallments(ctx context.Context, loanID string, now time.Time) ([]*domain.Installment, error) {
	args := m.Called(ctx, loanID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockLoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutstandingResponse), args.Error(1)
}

func (m *MockLoanService) IsDelinquent(ctx context.Context, loanID string, now time.Time) (*domain.DelinquentResponse, error) {
	args := m.Called(ctx, loanID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquentResponse), args.Error(1)
}

func (m *MockLoanService) ListActiveLoans(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, req *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentResult, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentService) ResetPayment(ctx context.Context, req *domain.ResetPaymentRequest, now time.Time) (*domain.PaymentResult, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentService) History(ctx context.Context, installmentID string) ([]*domain.PaymentEvent, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentEvent), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateWallet(ctx context.Context, req *domain.CreateWalletRequest, now time.Time) (*domain.Wallet, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockLedgerService) ApplyTransaction(ctx context.Context, req *domain.ApplyTransactionRequest, now time.Time) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, req *domain.TransferRequest, now time.Time) (*domain.TransferResult, error) {
	args := m.Called(ctx, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferResult), args.Error(1)
}

func (m *MockLedgerService) GetTransactions(ctx context.Context, walletID string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	args := m.Called(ctx, walletID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionPage), args.Error(1)
}

func (m *MockLedgerService) ReconcileWallet(ctx context.Context, walletID string) (*domain.WalletReconciliation, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletReconciliation), args.Error(1)
}

type MockRouteService struct {
	mock.Mock
}

func (m *MockRouteService) GetOrCreateRoute(ctx context.Context, collectorID string, date domain.Date, now time.Time) (*domain.CollectionRoute, error) {
	args := m.Called(ctx, collectorID, date, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionRoute), args.Error(1)
}

func (m *MockRouteService) GetRoute(ctx context.Context, routeID string) (*domain.CollectionRoute, error) {
	args := m.Called(ctx, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionRoute), args.Error(1)
}

func (m *MockRouteService) ListRoutes(ctx context.Context, collectorID string, from, to domain.Date) ([]*domain.CollectionRoute, error) {
	args := m.Called(ctx, collectorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CollectionRoute), args.Error(1)
}

func (m *MockRouteService) AddExpense(ctx context.Context, routeID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error) {
	args := m.Called(ctx, routeID, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteExpense), args.Error(1)
}

func (m *MockRouteService) UpdateExpense(ctx context.Context, routeID, expenseID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error) {
	args := m.Called(ctx, routeID, expenseID, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteExpense), args.Error(1)
}

func (m *MockRouteService) DeleteExpense(ctx context.Context, routeID, expenseID string, now time.Time) error {
	args := m.Called(ctx, routeID, expenseID, now)
	return args.Error(0)
}

func (m *MockRouteService) CloseRoute(ctx context.Context, routeID, notes string, now time.Time) (*domain.CollectionRoute, error) {
	args := m.Called(ctx, routeID, notes, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionRoute), args.Error(1)
}

func (m *MockRouteService) ReorderItems(ctx context.Context, routeID string, installmentIDs []string, now time.Time) (*domain.CollectionRoute, error) {
	args := m.Called(ctx, routeID, installmentIDs, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionRoute), args.Error(1)
}

type MockLiquidationService struct {
	mock.Mock
}

func (m *MockLiquidationService) GetCollectionsSummary(ctx context.Context, collectorID string, start, end domain.Date) (*domain.CollectionsSummary, error) {
	args := m.Called(ctx, collectorID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionsSummary), args.Error(1)
}

func (m *MockLiquidationService) Liquidate(ctx context.Context, collectorID string, start, end domain.Date, percentage *decimal.Decimal) (*domain.Liquidation, error) {
	args := m.Called(ctx, collectorID, start, end, percentage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Liquidation), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
