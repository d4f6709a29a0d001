package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repositories groups every repository bound to the same connection or
// transaction.
type Repositories struct {
	Loans        LoanRepository
	Installments InstallmentRepository
	Events       PaymentEventRepository
	Wallets      WalletRepository
	Routes       RouteRepository
}

func newRepositories(db dbtx) *Repositories {
	return &Repositories{
		Loans:        NewLoanRepository(db),
		Installments: NewInstallmentRepository(db),
		Events:       NewPaymentEventRepository(db),
		Wallets:      NewWalletRepository(db),
		Routes:       NewRouteRepository(db),
	}
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repositories returns repositories outside any transaction, for reads.
	Repositories() *Repositories

	// WithTx runs fn inside a transaction. The transaction commits only when
	// fn returns nil.
	WithTx(ctx context.Context, fn func(repos *Repositories) error) error

	// Ping checks the database connection.
	Ping(ctx context.Context) error
}

type sqlStore struct {
	db    *sqlx.DB
	repos *Repositories
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, repos: newRepositories(db)}
}

func (s *sqlStore) Repositories() *Repositories {
	return s.repos
}

func (s *sqlStore) WithTx(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
