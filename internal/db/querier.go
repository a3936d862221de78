package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier represents the minimal database operations used by services.
// *pgxpool.Pool, pgx.Tx and pgxmock pools all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxStarter is a Querier that can also open transactions. The attraction
// coordinator requires it for its read-plan-write units; pgxmock pools
// satisfy it too.
type TxStarter interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
