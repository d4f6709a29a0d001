package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/segyhp/collection-engine/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var (
	// ErrVersionConflict is returned when a versioned row changed underneath
	// the caller or the database aborted the transaction as non-serializable.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate key")

	// ErrRouteNotOpen is returned when a route mutation hits a closed route.
	ErrRouteNotOpen = errors.New("route is not open")
)

//go:embed migrations/*.sql
var migrations embed.FS

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Open connects to the configured database and applies driver specific
// connection settings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	switch cfg.Driver {
	case DriverSQLite:
		// One writer keeps in-memory databases shared and serializes transactions.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	default:
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate creates the schema for the connected driver. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	file := "migrations/postgres.sql"
	if db.DriverName() == DriverSQLite {
		file = "migrations/sqlite.sql"
	}

	ddl, err := migrations.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply %s: %w", file, err)
	}
	return nil
}

// translate maps driver errors onto the package sentinels so callers do not
// depend on a specific driver.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %v", ErrVersionConflict, err)
		case "23505":
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrVersionConflict, err)
		}
	}
	return err
}

// expectOne turns a zero-row update into the given sentinel.
func expectOne(res interface{ RowsAffected() (int64, error) }, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
