package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrNoSlot           = errors.New("no slot found")
	ErrBackend          = errors.New("calendar backend error")
	ErrNoDraft          = errors.New("no draft has been generated")
	ErrAlreadyConfirmed = errors.New("draft already confirmed")
)

// ValidationError rejects input that cannot be normalized. The caller must re-prompt.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s %q: must be one of %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a lookup target that does not exist. What names the
// kind of thing looked up and defaults to a draft item.
type NotFoundError struct {
	What string
	Ref  string
}

func (e *NotFoundError) Error() string {
	what := e.What
	if what == "" {
		what = "draft item"
	}
	return fmt.Sprintf("no %s matches %q", what, e.Ref)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NoSlotError reports a habit whose placement exhausted the shift budget.
type NoSlotError struct {
	Habit    string
	Attempts int
}

func (e *NoSlotError) Error() string {
	return fmt.Sprintf("no free slot for %q within %d attempts", e.Habit, e.Attempts)
}

func (e *NoSlotError) Unwrap() error { return ErrNoSlot }

// BackendError wraps a calendar read/write failure.
type BackendError struct {
	Op     string
	ItemID string
	Err    error
}

func (e *BackendError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("calendar %s failed for %s: %v", e.Op, e.ItemID, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// ParseWarning is a non-fatal note attached to a defaulted value.
// The empty string means no warning.
type ParseWarning string

// Kind maps an error onto the result kind reported to callers.
func Kind(err error) string {
	switch {
	case err == nil:
		return constants.KindOK
	case errors.Is(err, ErrValidation):
		return constants.KindValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoDraft):
		return constants.KindNotFound
	case errors.Is(err, ErrNoSlot):
		return constants.KindNoSlot
	case errors.Is(err, ErrBackend):
		return constants.KindBackend
	case errors.Is(err, ErrAlreadyConfirmed):
		return constants.KindAlreadyConfirmed
	default:
		return constants.KindBadRequest
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
