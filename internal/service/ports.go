package service

import (
	"context"

	"sems-converter/internal/entity"
)

// Content store port (implementations: filestore.Store, redisstore.Store).
// Save returns a reference that Read/Delete/Exists accept.
// Locate returns the reference Save would produce for key without writing.
type ContentStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
	Locate(key string) string
}

// TempSweeper is implemented by stores whose writes can leave partial
// files behind (filestore.Store). Reset calls it for every job kind.
type TempSweeper interface {
	SweepTemp(ctx context.Context, kind string) error
}

// Run history port (implementation: postgresql.RunRepository).
type RunRecorder interface {
	Record(ctx context.Context, run entity.ConversionRun) error
	ListByKind(ctx context.Context, kind string, limit int) ([]entity.ConversionRun, error)
}

// ConvertFunc turns the stored references of a job's input slots, in slot
// order, into the bytes of its output slot.
type ConvertFunc func(ctx context.Context, inputs []string) ([]byte, error)

type nopRecorder struct{}

// NopRecorder discards runs; used when no history database is configured.
func NopRecorder() RunRecorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, entity.ConversionRun) error { return nil }
func (nopRecorder) ListByKind(context.Context, string, int) ([]entity.ConversionRun, error) {
	return nil, nil
}
