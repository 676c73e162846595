package option

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain matches every *DomainError.
	ErrDomain = errors.New("domain error")
	// ErrInvalidArgument matches every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// DomainError is returned when a pricing parameter lies outside the
// mathematical domain of the model. Nothing is computed when it is returned.
type DomainError struct {
	Field string
	Value float64
}

func (e *DomainError) Error() string {
	switch e.Field {
	case "T", "Sigma":
		return fmt.Sprintf("domain error: volatility and time-to-maturity must be strictly positive (%s=%g)", e.Field, e.Value)
	}
	return fmt.Sprintf("domain error: %s must be strictly positive (got %g)", e.Field, e.Value)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// InvalidArgumentError covers sample counts, grid resolutions and ranges
// that cannot be evaluated.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
