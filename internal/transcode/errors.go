package transcode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when the input is neither PNG nor JPEG.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptImage is returned when the input cannot be decoded.
	ErrCorruptImage = errors.New("corrupt image")
	// ErrInvalidImageGeometry is returned for zero, negative or oversized source dimensions.
	ErrInvalidImageGeometry = errors.New("invalid image geometry")
	// ErrBudgetUnattainable is returned when no candidate fits the byte budget.
	ErrBudgetUnattainable = errors.New("budget unattainable")
	// ErrInvalidConstraints is returned when the constraints cannot drive a search.
	ErrInvalidConstraints = errors.New("invalid constraints")
)

// BudgetError reports an exhausted search. Best holds the smallest
// candidate produced, so the caller can decide whether to accept it.
type BudgetError struct {
	Budget int64
	Best   *Result
}

func (e *BudgetError) Error() string {
	if e.Best == nil {
		return fmt.Sprintf("%s: no candidate produced for %d bytes", ErrBudgetUnattainable, e.Budget)
	}

	return fmt.Sprintf(
		"%s: smallest candidate is %d bytes at %dx%d q=%.2f, budget %d bytes",
		ErrBudgetUnattainable, e.Best.Size, e.Best.Dimensions.Width, e.Best.Dimensions.Height, e.Best.Quality, e.Budget,
	)
}

func (e *BudgetError) Unwrap() error {
	return ErrBudgetUnattainable
}
