package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrBackend indicates the remote backend rejected or never received a request.
	ErrBackend = errors.New("backend request failed")
	// ErrUnauthenticated indicates an operation that requires a credential ran without one.
	ErrUnauthenticated = errors.New("not authenticated")
)
