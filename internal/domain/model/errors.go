package model

import "errors"

// ErrValidation marks input that fails a model's Validate.
var ErrValidation = errors.New("validation failed")
