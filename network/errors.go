package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrInvalidResponse indicates the node returned a malformed or
	// unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrBroadcastRejected indicates the node rejected the broadcast
	// transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrNotFound indicates the requested output does not exist or is
	// already spent.
	ErrNotFound = errors.New("network: not found")
)
