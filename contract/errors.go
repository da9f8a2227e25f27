package contract

import "errors"

var (
	// ErrParse indicates the contract source is syntactically malformed.
	ErrParse = errors.New("contract: parse error")

	// ErrUnboundParam indicates a declared parameter has no bound argument.
	ErrUnboundParam = errors.New("contract: unbound parameter")

	// ErrArgType indicates an argument value does not match the declared type.
	ErrArgType = errors.New("contract: argument type mismatch")

	// ErrCompile indicates the compiler boundary rejected the program.
	ErrCompile = errors.New("contract: compile error")

	// ErrBadValue indicates a literal value is malformed for its type.
	ErrBadValue = errors.New("contract: invalid value")

	// ErrBadArtifact indicates a serialized contract artifact is malformed.
	ErrBadArtifact = errors.New("contract: invalid artifact")
)
