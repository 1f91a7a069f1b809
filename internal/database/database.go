package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// Postgres error codes the adapters translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
)

// Options configures the connection pool.
type Options struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// Open connects to PostgreSQL and verifies the connection. An unreachable
// database is reported as a ConnectionFailure.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.URL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open postgres")
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	timeout := opts.PingTimeout
	if timeout == 0 {
		timeout = 6 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, servererrors.Wrap(servererrors.KindConnection, err, "database unreachable: "+err.Error())
	}
	return db, nil
}

// Ping checks the pool is still usable.
func Ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return servererrors.Wrap(servererrors.KindConnection, err, "database unreachable: "+err.Error())
	}
	return nil
}

// IsUniqueViolation reports a duplicate key error.
func IsUniqueViolation(err error) bool { return hasCode(err, codeUniqueViolation) }

// IsForeignKeyViolation reports a referential integrity error.
func IsForeignKeyViolation(err error) bool { return hasCode(err, codeForeignKeyViolation) }

// IsOutOfRange reports a value that does not fit its column, such as stock past the integer range.
func IsOutOfRange(err error) bool { return hasCode(err, codeNumericOutOfRange) }

// IsCheckViolation reports a CHECK constraint error, optionally for one named constraint.
func IsCheckViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeCheckViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// ConstraintOf returns the name of the constraint a postgres error reports, if any.
func ConstraintOf(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
