package spend

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/covenantlabs/libcovenant-go/network"
)

// Serialization prefixes for confidential fields. This module produces only
// explicit (unblinded) values and assets and nil nonces.
const (
	prefixNil      = 0x00
	prefixExplicit = 0x01
)

// TxIn is one transaction input: a reference to the spent output, a sequence
// number, and the witness stack proving the spend.
type TxIn struct {
	PrevTxID  chainhash.Hash
	PrevIndex uint32
	Sequence  uint32
	Witness   [][]byte
}

// TxOut is one transaction output. Outputs produced by this module always
// carry an explicit asset and value; deserialized outputs may instead carry
// blinded commitments, which round-trip through the codec but cannot be
// created or spent here. Fee outputs have an empty Script.
type TxOut struct {
	Asset  network.AssetID
	Value  uint64
	Script []byte

	// Blinded commitments, each a parity prefix plus a 32-byte point, set
	// only on deserialized confidential outputs.
	AssetCommitment []byte
	ValueCommitment []byte
	Nonce           []byte
}

// IsFee reports whether the output is a fee entry.
func (o *TxOut) IsFee() bool { return len(o.Script) == 0 }

// IsConfidential reports whether the output's asset or value is blinded.
func (o *TxOut) IsConfidential() bool {
	return len(o.AssetCommitment) != 0 || len(o.ValueCommitment) != 0
}

// Transaction is a finalized, consensus-serializable transaction. Only
// Builder.Finalize produces one; it must not be mutated afterwards.
type Transaction struct {
	Version  uint32
	Inputs   []*TxIn
	Outputs  []*TxOut
	LockTime uint32
}

// Serialize returns the full consensus encoding, including witness data when
// any input carries a witness stack.
func (t *Transaction) Serialize() []byte {
	return t.serialize(t.hasWitness())
}

// TxID returns the transaction id: the double-SHA256 of the no-witness
// serialization. chainhash renders it in the usual byte-reversed hex form.
func (t *Transaction) TxID() chainhash.Hash {
	return chainhash.DoubleHashH(t.serialize(false))
}

func (t *Transaction) hasWitness() bool {
	for _, in := range t.Inputs {
		if len(in.Witness) > 0 {
			return true
		}
	}
	return false
}

func (t *Transaction) serialize(withWitness bool) []byte {
	var buf bytes.Buffer

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], t.Version)
	buf.Write(u32[:])

	if withWitness {
		buf.WriteByte(0x01)
	} else {
		buf.WriteByte(0x00)
	}

	writeCompactSize(&buf, uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf.Write(in.PrevTxID[:])
		binary.LittleEndian.PutUint32(u32[:], in.PrevIndex)
		buf.Write(u32[:])
		writeCompactSize(&buf, 0) // empty scriptSig; spends are witness-only
		binary.LittleEndian.PutUint32(u32[:], in.Sequence)
		buf.Write(u32[:])
	}

	writeCompactSize(&buf, uint64(len(t.Outputs)))
	for _, out := range t.Outputs {
		writeTxOut(&buf, out)
	}

	binary.LittleEndian.PutUint32(u32[:], t.LockTime)
	buf.Write(u32[:])

	if withWitness {
		for _, in := range t.Inputs {
			writeCompactSize(&buf, 0) // issuance amount rangeproof
			writeCompactSize(&buf, 0) // inflation keys rangeproof
			writeCompactSize(&buf, uint64(len(in.Witness)))
			for _, item := range in.Witness {
				writeCompactSize(&buf, uint64(len(item)))
				buf.Write(item)
			}
			writeCompactSize(&buf, 0) // pegin witness
		}
		for range t.Outputs {
			writeCompactSize(&buf, 0) // surjection proof
			writeCompactSize(&buf, 0) // range proof
		}
	}
	return buf.Bytes()
}

// writeTxOut writes one output: explicit asset (0x01 || 32 bytes), explicit
// value (0x01 || 8 bytes big-endian), nil nonce, script. Blinded commitments
// carried by a deserialized output are written back verbatim.
func writeTxOut(buf *bytes.Buffer, out *TxOut) {
	if len(out.AssetCommitment) != 0 {
		buf.Write(out.AssetCommitment)
	} else {
		buf.WriteByte(prefixExplicit)
		buf.Write(out.Asset[:])
	}

	if len(out.ValueCommitment) != 0 {
		buf.Write(out.ValueCommitment)
	} else {
		var v [8]byte
		binary.BigEndian.PutUint64(v[:], out.Value)
		buf.WriteByte(prefixExplicit)
		buf.Write(v[:])
	}

	if len(out.Nonce) != 0 {
		buf.Write(out.Nonce)
	} else {
		buf.WriteByte(prefixNil)
	}

	writeCompactSize(buf, uint64(len(out.Script)))
	buf.Write(out.Script)
}

// serializeTxOut returns the standalone encoding of one output, used by the
// signature hash.
func serializeTxOut(out *TxOut) []byte {
	var buf bytes.Buffer
	writeTxOut(&buf, out)
	return buf.Bytes()
}

// Deserialize decodes a serialized transaction. Outputs may carry explicit
// values or blinded commitments; node wallets routinely blind their change.
func Deserialize(raw []byte) (*Transaction, error) {
	r := bytes.NewReader(raw)
	t := &Transaction{}

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformedTx, err)
	}
	t.Version = binary.LittleEndian.Uint32(u32[:])

	flag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: flag: %v", ErrMalformedTx, err)
	}
	if flag > 1 {
		return nil, fmt.Errorf("%w: flag byte %#02x", ErrMalformedTx, flag)
	}
	hasWitness := flag == 1

	numInputs, err := readCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("%w: input count: %v", ErrMalformedTx, err)
	}
	for i := uint64(0); i < numInputs; i++ {
		in := &TxIn{}
		if _, err := io.ReadFull(r, in.PrevTxID[:]); err != nil {
			return nil, fmt.Errorf("%w: input %d prevout: %v", ErrMalformedTx, i, err)
		}
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, fmt.Errorf("%w: input %d index: %v", ErrMalformedTx, i, err)
		}
		in.PrevIndex = binary.LittleEndian.Uint32(u32[:])
		if _, err := readVarBytes(r); err != nil {
			return nil, fmt.Errorf("%w: input %d scriptSig: %v", ErrMalformedTx, i, err)
		}
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, fmt.Errorf("%w: input %d sequence: %v", ErrMalformedTx, i, err)
		}
		in.Sequence = binary.LittleEndian.Uint32(u32[:])
		t.Inputs = append(t.Inputs, in)
	}

	numOutputs, err := readCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("%w: output count: %v", ErrMalformedTx, err)
	}
	for i := uint64(0); i < numOutputs; i++ {
		out, err := readTxOut(r)
		if err != nil {
			return nil, fmt.Errorf("%w: output %d: %v", ErrMalformedTx, i, err)
		}
		t.Outputs = append(t.Outputs, out)
	}

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("%w: locktime: %v", ErrMalformedTx, err)
	}
	t.LockTime = binary.LittleEndian.Uint32(u32[:])

	if hasWitness {
		for i := range t.Inputs {
			for _, field := range []string{"issuance amount proof", "inflation keys proof"} {
				if _, err := readVarBytes(r); err != nil {
					return nil, fmt.Errorf("%w: input %d %s: %v", ErrMalformedTx, i, field, err)
				}
			}
			numItems, err := readCompactSize(r)
			if err != nil {
				return nil, fmt.Errorf("%w: input %d witness count: %v", ErrMalformedTx, i, err)
			}
			for j := uint64(0); j < numItems; j++ {
				item, err := readVarBytes(r)
				if err != nil {
					return nil, fmt.Errorf("%w: input %d witness item %d: %v", ErrMalformedTx, i, j, err)
				}
				t.Inputs[i].Witness = append(t.Inputs[i].Witness, item)
			}
			if _, err := readVarBytes(r); err != nil {
				return nil, fmt.Errorf("%w: input %d pegin witness: %v", ErrMalformedTx, i, err)
			}
		}
		for i := range t.Outputs {
			for _, field := range []string{"surjection proof", "range proof"} {
				if _, err := readVarBytes(r); err != nil {
					return nil, fmt.Errorf("%w: output %d %s: %v", ErrMalformedTx, i, field, err)
				}
			}
		}
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTx, r.Len())
	}
	return t, nil
}

// Blinded commitment prefixes carry the commitment point's parity bit.
func isAssetCommitment(p byte) bool { return p == 0x0a || p == 0x0b }
func isValueCommitment(p byte) bool { return p == 0x08 || p == 0x09 }
func isNonceCommitment(p byte) bool { return p == 0x02 || p == 0x03 }

// readCommitment reads the 32-byte point of a blinded commitment and returns
// it together with its prefix byte.
func readCommitment(r *bytes.Reader, prefix byte) ([]byte, error) {
	c := make([]byte, 33)
	c[0] = prefix
	if _, err := io.ReadFull(r, c[1:]); err != nil {
		return nil, err
	}
	return c, nil
}

func readTxOut(r *bytes.Reader) (*TxOut, error) {
	out := &TxOut{}

	prefix, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case prefix == prefixExplicit:
		if _, err := io.ReadFull(r, out.Asset[:]); err != nil {
			return nil, err
		}
	case isAssetCommitment(prefix):
		if out.AssetCommitment, err = readCommitment(r, prefix); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bad asset prefix %#02x", prefix)
	}

	prefix, err = r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case prefix == prefixExplicit:
		var v [8]byte
		if _, err := io.ReadFull(r, v[:]); err != nil {
			return nil, err
		}
		out.Value = binary.BigEndian.Uint64(v[:])
	case isValueCommitment(prefix):
		if out.ValueCommitment, err = readCommitment(r, prefix); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bad value prefix %#02x", prefix)
	}

	prefix, err = r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case prefix == prefixNil:
	case isNonceCommitment(prefix):
		if out.Nonce, err = readCommitment(r, prefix); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bad nonce prefix %#02x", prefix)
	}

	script, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	out.Script = script
	return out, nil
}

// writeCompactSize writes the standard variable-length integer encoding.
func writeCompactSize(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		buf.Write(b[:])
	case n <= 0xffffffff:
		buf.WriteByte(0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
	default:
		buf.WriteByte(0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		buf.Write(b[:])
	}
}

func readCompactSize(r *bytes.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch first {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	default:
		return uint64(first), nil
	}
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, r.Len())
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
