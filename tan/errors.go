package tan

import "errors"

// Error kinds from spec.md §7. Every operation returns one of these
// (wrapped with context via fmt.Errorf("%w: ...")) rather than a bare
// error, so callers can distinguish failure classes with errors.Is.
var (
	// ErrInvalidArg is returned when an argument fails validation (nil
	// slice, wrong length, out-of-range channel index, ...).
	ErrInvalidArg = errors.New("tan: invalid argument")

	// ErrWrongState is returned when an operation is attempted in a
	// state that does not permit it (e.g. Process before Init, a second
	// concurrent update request on a channel already mid-update).
	ErrWrongState = errors.New("tan: wrong state")

	// ErrOutOfMemory is returned when an allocation needed to service a
	// request could not be satisfied.
	ErrOutOfMemory = errors.New("tan: out of memory")

	// ErrComputeFailure is returned when a compute backend operation
	// (kernel launch, transform, buffer op) fails.
	ErrComputeFailure = errors.New("tan: compute failure")

	// ErrAlreadyInitialized is returned by Init when called on a
	// Convolution that has already completed initialization.
	ErrAlreadyInitialized = errors.New("tan: already initialized")

	// ErrNotSupported is returned when a requested combination of
	// options is not supported by the selected algorithm or backend.
	ErrNotSupported = errors.New("tan: not supported")
)
