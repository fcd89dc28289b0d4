// Package errs defines the sentinel errors shared by the jswire packages.
//
// Callers match them with errors.Is; the codec packages wrap them with
// fmt.Errorf("%w: ...") to attach context.
package errs

import "errors"

var (
	// ErrDataClone indicates a value that cannot be represented in the wire
	// format: an opaque callable, or a host object the delegate refused.
	ErrDataClone = errors.New("could not be cloned")

	// ErrDeserialization indicates malformed input: truncation, a count
	// mismatch on a composite body, an unknown tag, or cursor overrun.
	ErrDeserialization = errors.New("unable to deserialize")

	// ErrUnsupportedVersion indicates a header declaring a wire format
	// version newer than this codec supports.
	ErrUnsupportedVersion = errors.New("unsupported wire format version")

	// ErrMissingTransfer indicates a transfer id with no registered buffer.
	ErrMissingTransfer = errors.New("transfer id not registered")

	// ErrDuplicateTransfer indicates a transfer id or buffer handle that is
	// already registered.
	ErrDuplicateTransfer = errors.New("transfer already registered")

	// ErrReleased indicates use of a serializer after Release.
	ErrReleased = errors.New("serializer already released")

	// ErrHeaderState indicates WriteHeader called twice, or a value written
	// before the header.
	ErrHeaderState = errors.New("invalid header state")
)
