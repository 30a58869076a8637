package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoBoxes          = errors.New("at least one box is required")
	ErrUserExists       = errors.New("username already exists")
	ErrInvalidUser      = errors.New("username and password are required")
	ErrProtectedUser    = errors.New("the Admin account cannot be modified this way")
)

// ValidationError reports missing or malformed input; nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
