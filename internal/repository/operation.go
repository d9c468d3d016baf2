package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS admin_operations (
	request_id  UUID PRIMARY KEY,
	table_name  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	decision    TEXT NOT NULL DEFAULT '',
	targets     TEXT[] NOT NULL,
	attempted   INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS admin_operations_table_created_idx
	ON admin_operations (table_name, created_at DESC);`

// OperationRepository is the audit log of confirmed destructive operations
type OperationRepository interface {
	EnsureSchema(ctx context.Context) error
	RecordOperation(ctx context.Context, op *event.OperationEvent) error
	ListOperations(ctx context.Context, table string, limit int) ([]*event.OperationEvent, error)
}

type operationRepository struct {
	db *pgxpool.Pool
}

func NewOperationRepository(db *pgxpool.Pool) OperationRepository {
	return &operationRepository{
		db: db,
	}
}

func (r *operationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create admin_operations schema: %w", err)
	}
	return nil
}

// RecordOperation stores op once; replaying the same request id is a no-op
func (r *operationRepository) RecordOperation(ctx context.Context, op *event.OperationEvent) error {
	result := op.Result
	if result == nil {
		result = &domain.BulkOperationResult{}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize operation result: %w", err)
	}

	targets := op.Targets
	if targets == nil {
		targets = []string{}
	}

	at := op.At
	if at.IsZero() {
		at = time.Now()
	}

	query := `
	INSERT INTO admin_operations
		(request_id, table_name, kind, decision, targets, attempted, succeeded, failed, result, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (request_id) DO NOTHING`
	_, err = r.db.Exec(ctx, query,
		op.RequestID,
		op.Table,
		string(op.Kind),
		op.Decision,
		targets,
		result.Attempted,
		result.Succeeded,
		result.Failed,
		data,
		at,
	)
	if err != nil {
		return fmt.Errorf("failed to save operation %s: %w", op.RequestID, err)
	}

	return nil
}

// ListOperations returns the newest operations first; an empty table name lists every table
func (r *operationRepository) ListOperations(ctx context.Context, table string, limit int) ([]*event.OperationEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT request_id::text, table_name, kind, decision, targets, result, created_at
	FROM admin_operations
	WHERE $1 = '' OR table_name = $1
	ORDER BY created_at DESC
	LIMIT $2`
	rows, err := r.db.Query(ctx, query, table, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []*event.OperationEvent
	for rows.Next() {
		var (
			op   event.OperationEvent
			kind string
			data []byte
		)
		if err := rows.Scan(&op.RequestID, &op.Table, &kind, &op.Decision, &op.Targets, &data, &op.At); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Kind = domain.OperationKind(kind)

		op.Result = &domain.BulkOperationResult{}
		if err := json.Unmarshal(data, op.Result); err != nil {
			return nil, fmt.Errorf("failed to parse result of operation %s: %w", op.RequestID, err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return ops, nil
}
