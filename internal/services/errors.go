package services

import "errors"

// ErrValidation marks a rejected request payload. Handlers map it to a
// 400 response; every other service error surfaces as a 500.
var ErrValidation = errors.New("validation failed")
