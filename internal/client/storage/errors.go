package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrInvalidAuth indicates an incomplete credential pair
	ErrInvalidAuth = errors.New("access and refresh tokens must be set together")

	// ErrUserNotFound indicates that no current user is stored
	ErrUserNotFound = errors.New("current user not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
