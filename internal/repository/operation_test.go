package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := "postgres://" + envOr("POSTGRES_USER", "storeadmin") + ":" + envOr("POSTGRES_PASSWORD", "storeadmin") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "storeadmin") + "?sslmode=disable&connect_timeout=2"

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping: DB not available: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestOperationRepository_RecordAndList(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewOperationRepository(pool)

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	// Idempotent
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}

	tableName := "test-" + uuid.NewString()
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM admin_operations WHERE table_name = $1", tableName)
	})

	op := &event.OperationEvent{
		RequestID: uuid.NewString(),
		Table:     tableName,
		Kind:      domain.OperationDelete,
		Decision:  "reparent",
		Targets:   []string{"A"},
		Result: &domain.BulkOperationResult{
			Attempted: 2, Succeeded: 2,
			Deleted:  []string{"A"},
			Detached: []string{"B"},
		},
		At: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := repo.RecordOperation(ctx, op); err != nil {
		t.Fatalf("RecordOperation() error = %v", err)
	}
	if err := repo.RecordOperation(ctx, op); err != nil {
		t.Fatalf("replayed RecordOperation() error = %v", err)
	}

	ops, err := repo.ListOperations(ctx, tableName, 10)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	got := ops[0]
	if got.RequestID != op.RequestID || got.Decision != "reparent" || got.Kind != domain.OperationDelete {
		t.Errorf("operation = %+v", got)
	}
	if got.Result.Summary() != "deleted 1, detached 1" {
		t.Errorf("Summary = %q", got.Result.Summary())
	}
	if !got.At.Equal(op.At) {
		t.Errorf("At = %v, want %v", got.At, op.At)
	}
}
