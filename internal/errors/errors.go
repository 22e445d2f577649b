// Package errors provides the error taxonomy used by the valuation engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Standard sentinel errors
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrNumerical           = errors.New("numerical error")
)

const dateLayout = "2006-01-02"

// ValidationError represents a single configuration violation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Is reports ErrConfiguration so callers can match any violation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors collects every violation found in one validation pass.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d configuration error(s): %s", len(v), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Errors returns the violations as plain errors.
func (v ValidationErrors) Errors() []error {
	return v.Unwrap()
}

// OrNil returns nil when no violation was collected.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// DataError represents a gap in an input series that no fill policy resolves.
type DataError struct {
	Series  string
	Date    time.Time
	Message string
	Err     error
}

func (e *DataError) Error() string {
	date := "-"
	if !e.Date.IsZero() {
		date = e.Date.Format(dateLayout)
	}
	if e.Err != nil {
		return fmt.Sprintf("data unavailable [%s] %s: %s: %v", e.Series, date, e.Message, e.Err)
	}
	return fmt.Sprintf("data unavailable [%s] %s: %s", e.Series, date, e.Message)
}

func (e *DataError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(series string, date time.Time, message string, err error) *DataError {
	return &DataError{
		Series:  series,
		Date:    date,
		Message: message,
		Err:     err,
	}
}

// HistoryError reports too few price observations for volatility estimation.
type HistoryError struct {
	Date         time.Time
	Observations int
	Required     int
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("insufficient history at %s: %d observation(s), need %d",
		e.Date.Format(dateLayout), e.Observations, e.Required)
}

func (e *HistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// NewHistoryError creates a new HistoryError.
func NewHistoryError(date time.Time, observations, required int) *HistoryError {
	return &HistoryError{
		Date:         date,
		Observations: observations,
		Required:     required,
	}
}

// NumericalError represents pricing inputs outside the model domain.
type NumericalError struct {
	Operation string
	Message   string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error [%s]: %s", e.Operation, e.Message)
}

func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}

// NewNumericalError creates a new NumericalError.
func NewNumericalError(operation, message string) *NumericalError {
	return &NumericalError{
		Operation: operation,
		Message:   message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
