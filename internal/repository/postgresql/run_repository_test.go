package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"sems-converter/internal/entity"
	"sems-converter/internal/repository/postgresql"
)

// Runs against a real database only when POSTGRES_TEST_DSN is set.
func TestRunRepository_RecordAndList(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	pool, err := postgresql.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pg: %v", err)
	}
	defer pool.Close()
	if err := postgresql.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := postgresql.NewRunRepository(pool)
	kind := "test-" + uuid.NewString()
	msg := "SEMS main file line 2: unknown record type"
	older := entity.ConversionRun{
		ID: uuid.New(), Kind: kind, Output: "Vx Election Definition",
		Status: entity.RunError, Error: &msg, DurationMS: 3,
		CreatedAt: time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond),
	}
	newer := entity.ConversionRun{
		ID: uuid.New(), Kind: kind, Output: "Vx Election Definition",
		Status: entity.RunDone, DurationMS: 5,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	for _, run := range []entity.ConversionRun{older, newer} {
		if err := repo.Record(ctx, run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	runs, err := repo.ListByKind(ctx, kind, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer.ID || runs[1].ID != older.ID {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[1].Error == nil || *runs[1].Error != msg || runs[0].Error != nil {
		t.Fatalf("unexpected error columns: %+v", runs)
	}
}
