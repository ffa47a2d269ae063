// Package database implements core.Store on PostgreSQL using pgx.
package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// DefaultBatchSize is the number of workout upserts sent per round trip.
const DefaultBatchSize = 500

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists workouts, profiles, nutrition plans and calendar items.
type Store struct {
	db        DBTX
	batchSize int
}

var _ core.Store = (*Store)(nil)

// New creates a Store. A batchSize of zero or less uses DefaultBatchSize.
func New(db DBTX, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{db: db, batchSize: batchSize}
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
