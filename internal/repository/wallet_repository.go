package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collection-engine/internal/domain"
)

const (
	walletColumns      = `id, owner_id, balance, currency, version, created_at, updated_at`
	transactionColumns = `id, wallet_id, sequence, type, amount, signed_amount, balance_before, balance_after,
	related_installment_id, related_transaction_id, description, occurred_at`
)

type walletRepository struct {
	db dbtx
}

func NewWalletRepository(db dbtx) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		wallet.ID,
		wallet.OwnerID,
		wallet.Balance,
		wallet.Currency,
		wallet.Version,
		utc(wallet.CreatedAt),
		utc(wallet.UpdatedAt),
	)

	return translate(err)
}

func (r *walletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = ?`, id)
}

func (r *walletRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = ?`
	// SQLite serializes writers on the database lock instead.
	if r.db.DriverName() == DriverPostgres {
		query += ` FOR UPDATE`
	}
	return r.get(ctx, query, id)
}

func (r *walletRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = ?`, ownerID)
}

func (r *walletRepository) get(ctx context.Context, query string, arg string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.db.GetContext(ctx, &wallet, r.db.Rebind(query), arg); err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		wallet.Balance,
		utc(wallet.UpdatedAt),
		wallet.ID,
		wallet.Version,
	)
	if err != nil {
		return translate(err)
	}
	if err := expectOne(res, ErrVersionConflict); err != nil {
		return err
	}

	wallet.Version++
	return nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		tx.ID,
		tx.WalletID,
		tx.Sequence,
		tx.Type,
		tx.Amount,
		tx.SignedAmount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.RelatedInstallmentID,
		tx.RelatedTransactionID,
		tx.Description,
		utc(tx.OccurredAt),
	)

	if err = translate(err); isDuplicate(err) {
		return ErrVersionConflict
	}
	return err
}

func (r *walletRepository) GetTransaction(ctx context.Context, id string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = ?`

	var tx domain.WalletTransaction
	if err := r.db.GetContext(ctx, &tx, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID string, q TransactionQuery) ([]*domain.WalletTransaction, int, error) {
	where, args, err := transactionFilter(walletID, q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM wallet_transactions WHERE ` + where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE ` + where +
		` ORDER BY sequence DESC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	transactions := []*domain.WalletTransaction{}
	if err := r.db.SelectContext(ctx, &transactions, r.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (r *walletRepository) History(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE wallet_id = ? ORDER BY sequence`

	var transactions []*domain.WalletTransaction
	if err := r.db.SelectContext(ctx, &transactions, r.db.Rebind(query), walletID); err != nil {
		return nil, err
	}

	return transactions, nil
}

// transactionFilter builds the WHERE clause shared by the page and count
// queries. Bounds are half-open: From inclusive, To exclusive.
func transactionFilter(walletID string, q TransactionQuery) (string, []interface{}, error) {
	clauses := []string{"wallet_id = ?"}
	args := []interface{}{walletID}

	if len(q.Types) > 0 {
		in, inArgs, err := sqlx.In("type IN (?)", q.Types)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, in)
		args = append(args, inArgs...)
	}
	if q.From != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, utc(*q.From))
	}
	if q.To != nil {
		clauses = append(clauses, "occurred_at < ?")
		args = append(args, utc(*q.To))
	}

	return strings.Join(clauses, " AND "), args, nil
}
