package spend

import (
	"fmt"

	"github.com/covenantlabs/libcovenant-go/contract"
)

// Provider computes witness values from a signature hash. It is called
// exactly once, after the hash is computed and before finalize, and receives
// nothing but the hash: signature-bearing witnesses can be generated lazily
// without the builder knowing about signing keys.
type Provider func(sighash [32]byte) (contract.WitnessValues, error)

// EmptyWitness is a Provider for contracts whose witness schema is empty.
func EmptyWitness(_ [32]byte) (contract.WitnessValues, error) {
	return contract.WitnessValues{}, nil
}

// Complete runs the fixed tail of the protocol: compute the signature hash,
// invoke the provider once with it, and finalize with the returned values.
func Complete(b *Builder, provide Provider) (*Transaction, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: builder", ErrNilParam)
	}
	if provide == nil {
		return nil, fmt.Errorf("%w: witness provider", ErrNilParam)
	}

	sighash, err := b.SighashAll()
	if err != nil {
		return nil, err
	}
	values, err := provide(sighash)
	if err != nil {
		return nil, fmt.Errorf("spend: witness provider: %w", err)
	}
	return b.Finalize(values)
}
