package blob

import "errors"

// Sentinel kinds for blob errors.
var (
	ErrInvalidKey = errors.New("invalid blob key")
	ErrNotFound   = errors.New("blob not found")
	ErrCorrupt    = errors.New("corrupt blob")
	ErrLocked     = errors.New("blob directory is locked")
)
