package media

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent  = errors.New("empty content")
	ErrTooLarge      = errors.New("content exceeds maximum upload size")
	ErrAlreadyExists = errors.New("identifier already exists")
	ErrNotFound      = errors.New("file not found")
)

// ValidationError is a user-correctable rejection of an upload.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failed durable write or read. Failed writes are
// never retried automatically.
type StorageError struct {
	Op         string
	Identifier string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Identifier, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SessionError is fatal to a single viewer session only.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("viewer session: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
