package store

import "errors"

var (
	// ErrNotFound indicates no artifact exists for the commitment root.
	ErrNotFound = errors.New("store: artifact not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")
)
