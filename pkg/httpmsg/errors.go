package httpmsg

import (
	"errors"
	"fmt"
)

// Error kinds shared by the codec, the body stream adapter and the request
// builder. Errors returned by those packages wrap one of these values and
// carry a description of the failure; use errors.Is to classify them.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidBodyStream  = errors.New("invalid body stream")
	ErrCallbackFailure    = errors.New("body stream callback failure")
	ErrContextUnavailable = errors.New("execution context unavailable")
	ErrAllocationFailure  = errors.New("allocation failure")

	// ErrUnsupported is returned for operations that the input stream does
	// not implement, such as seeking anywhere else than to the beginning.
	ErrUnsupported = fmt.Errorf("%w: unsupported operation", ErrInvalidArgument)
)
