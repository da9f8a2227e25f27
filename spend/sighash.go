package spend

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/covenantlabs/libcovenant-go/address"
)

// Signature-hash constants for the script-path SIGHASH_ALL message.
const (
	tagSighash = "TapSighash/elements"

	sighashEpoch   = 0x00
	sighashAllType = 0x00
	spendTypeLeaf  = 0x02 // script path, no annex
	keyVersion     = 0x00

	// noCodeSeparator marks that no OP_CODESEPARATOR position applies.
	noCodeSeparator = 0xffffffff
)

// computeSighash builds the canonical signature-hash message over the
// builder's staged transaction. Each variable-length bucket (prevouts,
// spent asset/amount pairs, spent scripts, sequences, outputs) is hashed on
// its own and the fixed-size digests are concatenated, so the final hash
// binds every economically meaningful field: altering any of them after a
// signature is produced invalidates that signature.
func (b *Builder) computeSighash() [32]byte {
	var u32 [4]byte

	var prevouts bytes.Buffer
	prevouts.Write(b.utxo.TxID[:])
	binary.LittleEndian.PutUint32(u32[:], b.utxo.Vout)
	prevouts.Write(u32[:])
	shaPrevouts := sha256.Sum256(prevouts.Bytes())

	var spent bytes.Buffer
	spent.WriteByte(prefixExplicit)
	spent.Write(b.utxo.Asset[:])
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], b.utxo.Amount)
	spent.WriteByte(prefixExplicit)
	spent.Write(v[:])
	shaSpent := sha256.Sum256(spent.Bytes())

	var scripts bytes.Buffer
	writeCompactSize(&scripts, uint64(len(b.utxo.ScriptPubKey)))
	scripts.Write(b.utxo.ScriptPubKey)
	shaScripts := sha256.Sum256(scripts.Bytes())

	binary.LittleEndian.PutUint32(u32[:], b.sequence)
	shaSequences := sha256.Sum256(u32[:])

	var outputs bytes.Buffer
	for _, out := range b.outputs {
		outputs.Write(serializeTxOut(out))
	}
	for _, fee := range b.fees {
		outputs.Write(serializeTxOut(fee))
	}
	shaOutputs := sha256.Sum256(outputs.Bytes())

	leaf := address.CommitmentLeafHash(b.contract.CommitmentRoot())

	var msg bytes.Buffer
	msg.WriteByte(sighashEpoch)
	msg.WriteByte(sighashAllType)
	// The chain binds its genesis hash twice, preventing cross-chain
	// signature replay.
	msg.Write(b.genesis[:])
	msg.Write(b.genesis[:])
	binary.LittleEndian.PutUint32(u32[:], txVersion)
	msg.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], b.lockTime)
	msg.Write(u32[:])
	msg.Write(shaPrevouts[:])
	msg.Write(shaSpent[:])
	msg.Write(shaScripts[:])
	msg.Write(shaSequences[:])
	msg.Write(shaOutputs[:])
	msg.WriteByte(spendTypeLeaf)
	binary.LittleEndian.PutUint32(u32[:], 0) // input index
	msg.Write(u32[:])
	msg.Write(leaf[:])
	msg.WriteByte(keyVersion)
	binary.LittleEndian.PutUint32(u32[:], noCodeSeparator)
	msg.Write(u32[:])

	return address.TaggedHash(tagSighash, msg.Bytes())
}
