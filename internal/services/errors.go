package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Validation and not-found errors are
// terminal for the operation that raised them; everything else is passed
// through to the caller untouched. Best-effort failures (blob deletion,
// cascade children, access bookkeeping) are logged where they happen and
// never surface here.
var (
	// ErrNotFound marks a missing parent, child, or token.
	ErrNotFound = errors.New("not found")

	// ErrExportCancelled is the distinguished outcome of a user-cancelled
	// bulk export. It is not a failure.
	ErrExportCancelled = errors.New("export cancelled")

	// ErrGalleryLoad hides the concrete cause of a gallery bootstrap
	// failure from recipients.
	ErrGalleryLoad = errors.New("failed to load gallery")
)

// ValidationError marks bad caller input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
