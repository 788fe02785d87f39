package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// IndexDBStorage implements the store.IndexStorage interface on PostgreSQL.
// Entity embeddings are carried through into a pgvector column; everything
// else is plain relational rows keyed by project id.
type IndexDBStorage struct {
	conn pgxIConn
}

// NewIndexDBStorageWithConnection creates a new IndexDBStorage using an
// existing database connection or pool.
func NewIndexDBStorageWithConnection(conn pgxIConn) *IndexDBStorage {
	return &IndexDBStorage{conn: conn}
}
