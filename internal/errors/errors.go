package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the URL shortener core.

// ErrStorageUnavailable is returned when the backing store cannot be opened or migrated.
// The service must not start when it sees this error.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrStorage matches any StorageError through errors.Is.
var ErrStorage = errors.New("storage error")

// ErrAliasNotFound is the explicit empty result of a resolution.
var ErrAliasNotFound = errors.New("alias not found")

// ErrInvalidAlias is returned when an alias contains symbols outside the base62 alphabet.
var ErrInvalidAlias = errors.New("invalid alias")

// ErrEmptyURL is returned when a registration carries no URL.
var ErrEmptyURL = errors.New("empty URL")

// StorageError wraps an I/O or query failure of the backing store during a request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) hold for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}

// ErrURLCheckFailed is returned when URL health check fails
type ErrURLCheckFailed struct {
	URL    string
	Reason string
}

func (e ErrURLCheckFailed) Error() string {
	return fmt.Sprintf("failed to check URL %s: %s", e.URL, e.Reason)
}
