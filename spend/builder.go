package spend

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/covenantlabs/libcovenant-go/address"
	"github.com/covenantlabs/libcovenant-go/contract"
	"github.com/covenantlabs/libcovenant-go/network"
)

// txVersion is the transaction version emitted by the builder.
const txVersion = 2

// defaultSequence disables relative locktime semantics.
const defaultSequence = 0xffffffff

// state is the builder's lifecycle position. Transitions are monotonic:
// Building -> SighashComputed -> Finalized.
type state uint8

const (
	stateBuilding state = iota
	stateSighashComputed
	stateFinalized
)

// Builder stages a spending transaction for one contract utxo. It is a
// single-owner mutable object: callers must not share one instance across
// goroutines. Every operation's validity depends on the current lifecycle
// state; once the signature hash is computed, no field may change, so the
// hash can never silently desynchronize from the signed data.
type Builder struct {
	contract *contract.CompiledContract
	utxo     network.Utxo
	outputs  []*TxOut
	fees     []*TxOut
	lockTime uint32
	sequence uint32
	genesis  *chainhash.Hash

	st      state
	sighash [32]byte
}

// New creates a builder in the Building state spending the given utxo. The
// genesis hash is taken from the compiled contract if it carries one.
func New(c *contract.CompiledContract, utxo network.Utxo) (*Builder, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: contract", ErrNilParam)
	}
	b := &Builder{
		contract: c,
		utxo:     utxo,
		sequence: defaultSequence,
	}
	if genesis, ok := c.GenesisHash(); ok {
		b.genesis = &genesis
	}
	return b, nil
}

// GenesisHash binds the chain id included in the signature hash. It may be
// set at most once, and only before the hash is computed.
func (b *Builder) GenesisHash(genesis chainhash.Hash) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if b.genesis != nil {
		return fmt.Errorf("%w: genesis hash", ErrAlreadySet)
	}
	g := genesis
	b.genesis = &g
	return nil
}

// LockTime sets the transaction lock time. Default 0.
func (b *Builder) LockTime(lockTime uint32) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.lockTime = lockTime
	return nil
}

// Sequence sets the input sequence number. Default 0xffffffff.
func (b *Builder) Sequence(sequence uint32) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.sequence = sequence
	return nil
}

// AddOutput appends an output paying value of asset to the destination
// script.
func (b *Builder) AddOutput(script []byte, value uint64, asset network.AssetID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if len(script) == 0 {
		return fmt.Errorf("%w: destination script", ErrNilParam)
	}
	if err := checkValue(value); err != nil {
		return err
	}
	b.outputs = append(b.outputs, &TxOut{
		Asset:  asset,
		Value:  value,
		Script: append([]byte(nil), script...),
	})
	return nil
}

// AddOutputAddress is AddOutput with the destination given as an address.
func (b *Builder) AddOutputAddress(addr string, params *address.Params, value uint64, asset network.AssetID) error {
	script, err := address.ScriptFromAddress(addr, params)
	if err != nil {
		return err
	}
	return b.AddOutput(script, value, asset)
}

// AddFee appends an explicit fee entry for the given asset.
func (b *Builder) AddFee(value uint64, asset network.AssetID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	b.fees = append(b.fees, &TxOut{Asset: asset, Value: value})
	return nil
}

// mutable rejects mutation outside the Building state.
func (b *Builder) mutable() error {
	switch b.st {
	case stateBuilding:
		return nil
	case stateSighashComputed:
		return ErrAlreadyComputed
	default:
		return ErrAlreadyFinalized
	}
}

func checkValue(value uint64) error {
	if value == 0 || value > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ErrNegativeValue, value)
	}
	return nil
}

// checkConservation verifies that for every asset, input value equals output
// value plus fee value. The single input funds exactly one asset; outputs or
// fees naming any other asset are a mismatch.
func (b *Builder) checkConservation() error {
	var spent uint64
	for _, out := range append(append([]*TxOut(nil), b.outputs...), b.fees...) {
		if out.Asset != b.utxo.Asset {
			return fmt.Errorf("%w: output asset %s, input provides %s",
				ErrAssetMismatch, out.Asset, b.utxo.Asset)
		}
		sum, carry := bits.Add64(spent, out.Value, 0)
		if carry != 0 {
			return fmt.Errorf("%w: outputs and fees overflow a 64-bit total",
				ErrInsufficientFunds)
		}
		spent = sum
	}
	if spent > b.utxo.Amount {
		return fmt.Errorf("%w: outputs and fees total %d, input provides %d",
			ErrInsufficientFunds, spent, b.utxo.Amount)
	}
	if spent < b.utxo.Amount {
		return fmt.Errorf("%w: outputs and fees total %d leave %d of input %d unspent",
			ErrInsufficientFunds, spent, b.utxo.Amount-spent, b.utxo.Amount)
	}
	return nil
}

// SighashAll computes the canonical SIGHASH_ALL signature hash over the
// builder's current state and transitions to SighashComputed. It may be
// called at most once; the value-conservation invariant is enforced first, so
// no hash is ever produced for an unbalanced transaction. The hash binds
// every economically meaningful field (prevout, input value and asset,
// outputs, fees, lock time, sequence, chain genesis) and is independent of
// witness content.
func (b *Builder) SighashAll() ([32]byte, error) {
	if b.st != stateBuilding {
		return [32]byte{}, ErrAlreadyComputed
	}
	if b.genesis == nil {
		return [32]byte{}, ErrGenesisMissing
	}
	if err := b.checkConservation(); err != nil {
		return [32]byte{}, err
	}

	b.sighash = b.computeSighash()
	b.st = stateSighashComputed
	return b.sighash, nil
}

// Finalize embeds the witness values plus the commitment's control-block
// proof into the input's witness stack and serializes the final transaction.
// It requires SighashComputed and may succeed at most once. The witness
// value set must exactly equal the contract's witness schema; any missing,
// extra, or mistyped entry is rejected and no transaction is produced.
func (b *Builder) Finalize(values contract.WitnessValues) (*Transaction, error) {
	switch b.st {
	case stateBuilding:
		return nil, ErrNotComputed
	case stateFinalized:
		return nil, ErrAlreadyFinalized
	}

	if err := checkSchema(b.contract.WitnessSchema(), values); err != nil {
		return nil, err
	}

	root := b.contract.CommitmentRoot()
	controlBlock, err := address.ControlBlock(root)
	if err != nil {
		return nil, err
	}

	// Witness stack: encoded values in name order, then the revealed
	// bytecode, then the script-path proof.
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	witness := make([][]byte, 0, len(names)+2)
	for _, name := range names {
		witness = append(witness, values[name].Encode())
	}
	witness = append(witness, b.contract.Bytecode())
	witness = append(witness, controlBlock)

	tx := &Transaction{
		Version: txVersion,
		Inputs: []*TxIn{{
			PrevTxID:  b.utxo.TxID,
			PrevIndex: b.utxo.Vout,
			Sequence:  b.sequence,
			Witness:   witness,
		}},
		Outputs:  append(append([]*TxOut(nil), b.outputs...), b.fees...),
		LockTime: b.lockTime,
	}

	b.st = stateFinalized
	return tx, nil
}

// checkSchema verifies that values carries exactly the names the schema
// declares, each with the declared type.
func checkSchema(schema contract.Schema, values contract.WitnessValues) error {
	for name, typ := range schema {
		val, ok := values[name]
		if !ok {
			return fmt.Errorf("%w: missing witness %q", ErrSchemaMismatch, name)
		}
		if val.Type() != typ {
			return fmt.Errorf("%w: witness %q declared %s, got %s",
				ErrSchemaMismatch, name, typ, val.Type())
		}
	}
	for name := range values {
		if _, ok := schema[name]; !ok {
			return fmt.Errorf("%w: undeclared witness %q", ErrSchemaMismatch, name)
		}
	}
	return nil
}
