package address

import "errors"

var (
	// ErrUnknownNetwork indicates the network name is not recognized.
	ErrUnknownNetwork = errors.New("address: unknown network")

	// ErrBadAddress indicates an address string cannot be decoded for the
	// given network.
	ErrBadAddress = errors.New("address: invalid address")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("address: required parameter is nil")
)
