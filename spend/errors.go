package spend

import "errors"

var (
	// ErrNegativeValue indicates an output or fee value is not positive.
	ErrNegativeValue = errors.New("spend: value must be positive")

	// ErrInsufficientFunds indicates per-asset output and fee values do not
	// equal the input value.
	ErrInsufficientFunds = errors.New("spend: insufficient funds")

	// ErrAssetMismatch indicates an output or fee names an asset the input
	// does not provide.
	ErrAssetMismatch = errors.New("spend: asset mismatch")

	// ErrAlreadySet indicates a single-assignment field was set twice.
	ErrAlreadySet = errors.New("spend: field already set")

	// ErrAlreadyComputed indicates the signature hash was already computed
	// and the builder no longer accepts mutation or recomputation.
	ErrAlreadyComputed = errors.New("spend: sighash already computed")

	// ErrNotComputed indicates finalize was called before the signature
	// hash was computed.
	ErrNotComputed = errors.New("spend: sighash not yet computed")

	// ErrAlreadyFinalized indicates the builder already produced its
	// transaction.
	ErrAlreadyFinalized = errors.New("spend: already finalized")

	// ErrSchemaMismatch indicates the witness values do not match the
	// contract's witness schema.
	ErrSchemaMismatch = errors.New("spend: witness schema mismatch")

	// ErrGenesisMissing indicates no chain genesis hash is bound; the
	// target chain requires it in the signature hash.
	ErrGenesisMissing = errors.New("spend: genesis hash not set")

	// ErrMalformedTx indicates serialized transaction bytes cannot be
	// decoded.
	ErrMalformedTx = errors.New("spend: malformed transaction")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("spend: required parameter is nil")
)
