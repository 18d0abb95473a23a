package rategate

import "errors"

var (
	// ErrInvalidConfiguration is returned by New when occurrences or the time
	// unit are out of range. No gate is produced.
	ErrInvalidConfiguration = errors.New("rategate: invalid configuration")

	// ErrInvalidArgument is returned when a wait is given a negative timeout
	// other than Infinite. The gate is not modified.
	ErrInvalidArgument = errors.New("rategate: invalid argument")

	// ErrDisposed is returned by any operation on a gate after Close, or after
	// its reclaimer failed. The gate is permanently unusable.
	ErrDisposed = errors.New("rategate: gate is disposed")
)
