package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrPromptNotFound = errors.New("prompt not found")
	ErrPromptClosed   = errors.New("prompt already answered")
)
