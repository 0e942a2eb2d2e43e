package seed

import "errors"

// Sentinel kinds for seed errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported seed file format")
	ErrMalformed         = errors.New("malformed seed file")
)
