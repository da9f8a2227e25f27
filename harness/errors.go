package harness

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("harness: required parameter is nil")

	// ErrFundingNotFound indicates the funding transaction pays no output
	// to the contract address.
	ErrFundingNotFound = errors.New("harness: funding output not found")
)
