package docstore

import "github.com/pkg/errors"

// Predefined store errors.
var (
	// ErrNotFound is returned when the store reports 404 for the addressed
	// collection or job. Deletions and stops of possibly-nonexistent
	// resources check for it with errors.Is and treat it as a no-op.
	ErrNotFound = errors.New("resource not found")
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
