package chat

import "errors"

// Error kinds surfaced by the chat core. Callers match them with errors.Is;
// detail is attached by wrapping.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("chat not found")
	ErrRateLimited = errors.New("rate limited")
	ErrProvider    = errors.New("completion provider error")
	ErrInternal    = errors.New("internal error")
)
