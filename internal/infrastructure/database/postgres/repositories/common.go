// Package repositories contains the PostgreSQL implementations of the domain
// persistence contracts.
package repositories

import (
	"context"
	"database/sql"

	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
)

// queryExecutor is satisfied by both *sql.DB and *sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type baseRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

func (r *baseRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}
