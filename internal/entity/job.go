package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunDone  RunStatus = "done"
	RunError RunStatus = "error"
)

// ConversionRun is one Process attempt that reached the converter.
type ConversionRun struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Output     string    `json:"output"`
	Status     RunStatus `json:"status"`
	Error      *string   `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
