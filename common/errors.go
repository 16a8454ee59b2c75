package common

import "errors"

// Error kinds shared across the decoders and providers. Wrap these with
// fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	// ErrTruncated indicates a stream ended before the declared structure
	// was fully consumed.
	ErrTruncated = errors.New("truncated")

	// ErrMalformed indicates a pointer or count violates the layout.
	ErrMalformed = errors.New("malformed")

	// ErrUnsupported indicates a valid but unhandled encoding, such as a
	// compressed Message 31, a bzip2 compressed Archive II volume, or an
	// unrecognized file format.
	ErrUnsupported = errors.New("unsupported")

	// ErrNotFound indicates a provider returned no key for the requested
	// time.
	ErrNotFound = errors.New("not found")

	// ErrProvider wraps an error from a DataProvider call.
	ErrProvider = errors.New("provider error")

	// ErrInvalidArgument indicates a caller error, such as an unknown
	// RadialSize.
	ErrInvalidArgument = errors.New("invalid argument")
)
