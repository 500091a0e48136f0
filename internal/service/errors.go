package service

import (
	"errors"
	"fmt"
)

var (
	ErrKindNotFound     = errors.New("job kind not found")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrNotReady         = errors.New("not all files are ready to process")
	ErrNotAvailable     = errors.New("output not available")
	ErrConversionFailed = errors.New("conversion failed")
)

// ConversionError carries the converter's failure for one Process call.
// It matches both ErrConversionFailed and the underlying cause.
type ConversionError struct {
	Kind string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s conversion failed: %v", e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() []error { return []error{ErrConversionFailed, e.Err} }
