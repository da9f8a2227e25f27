package contract

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/covenantlabs/libcovenant-go/address"
)

// CompiledContract is the executable commitment produced by Instantiate. It
// is immutable and safe for concurrent use: the commitment root, bytecode and
// witness schema are fixed at construction.
type CompiledContract struct {
	root     [32]byte
	bytecode []byte
	schema   Schema
	genesis  *chainhash.Hash
}

// CommitmentRoot returns the 32-byte commitment root.
func (c *CompiledContract) CommitmentRoot() [32]byte { return c.root }

// Bytecode returns a copy of the compiled bytecode.
func (c *CompiledContract) Bytecode() []byte {
	return append([]byte(nil), c.bytecode...)
}

// WitnessSchema returns a copy of the declared witness schema.
func (c *CompiledContract) WitnessSchema() Schema { return c.schema.clone() }

// GenesisHash returns the bound chain-genesis identifier, if any.
func (c *CompiledContract) GenesisHash() (chainhash.Hash, bool) {
	if c.genesis == nil {
		return chainhash.Hash{}, false
	}
	return *c.genesis, true
}

// WithGenesisHash returns a copy of the contract bound to the given chain
// genesis. The receiver is unchanged.
func (c *CompiledContract) WithGenesisHash(genesis chainhash.Hash) *CompiledContract {
	out := &CompiledContract{
		root:     c.root,
		bytecode: append([]byte(nil), c.bytecode...),
		schema:   c.schema.clone(),
	}
	g := genesis
	out.genesis = &g
	return out
}

// Address derives the contract's receiving address for the given network.
// The derivation is pure: repeated calls with the same parameters return
// byte-identical addresses.
func (c *CompiledContract) Address(params *address.Params) (*address.Address, error) {
	return address.Derive(c.root, params)
}
