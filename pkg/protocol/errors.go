package protocol

// Error codes returned in ErrorShape.Code.
const (
	ErrInvalidRequest  = "INVALID_REQUEST"  // malformed params, empty text, unknown provider
	ErrInvalidArgument = "INVALID_ARGUMENT" // out-of-bounds values (e.g. summary target length)
	ErrUnavailable     = "UNAVAILABLE"      // no configured provider, vendor call failed/timed out
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrNotFound        = "NOT_FOUND" // unknown RPC method
	ErrInternal        = "INTERNAL"
)
