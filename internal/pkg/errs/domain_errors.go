package errs

import "errors"

// Category markers applied by the use-case layer
var (
	// Nothing was changed: a domain rule or a lookup rejected the request.
	ErrDomainRejected = errors.New("request rejected by clinic rules")

	// The change could not be made durable.
	ErrPersistenceFailed = errors.New("persistence operation failed")
)
