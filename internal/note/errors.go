package note

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when required input is empty or malformed.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is surfaced by callers above the repository when an
	// addressed id does not exist. Repositories themselves report absence
	// as a nil note.
	ErrNotFound = errors.New("note not found")

	// ErrBackendUnavailable wraps connectivity and schema initialization
	// failures of a storage backend.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Unavailable wraps err so that errors.Is(err, ErrBackendUnavailable) holds.
func Unavailable(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, backend, err)
}
