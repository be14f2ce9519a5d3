package usecase

import "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrTransientSource marks network and timeout failures from a provider. Feeds retry these
	// and the reconciler skips the game once retries are spent.
	ErrTransientSource = errors.New("transient source error")
	// ErrDataIntegrity marks a malformed authoritative payload. The game is skipped.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrAmbiguousMatch is never auto-resolved.
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// IsGameSkippable reports the errors that fail one game without failing the batch.
func IsGameSkippable(err error) bool {
	return errors.IsAny(err, ErrTransientSource, ErrDataIntegrity)
}
