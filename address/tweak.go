package address

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Tagged-hash domain separators. The chain separates its taproot hashes from
// bitcoin's by suffixing the tag names.
const (
	tagLeaf  = "TapLeaf/elements"
	tagTweak = "TapTweak/elements"

	// LeafVersion is the tapscript leaf version reserved for commitment
	// programs.
	LeafVersion byte = 0xbe
)

// numsKeyHex is the canonical unspendable internal key from BIP341:
// lift_x(sha256(ser(G))). Using it commits to "no key-path spend exists";
// only the script path identified by the commitment root can move funds.
const numsKeyHex = "50929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0"

var numsKey = mustParseXOnly(numsKeyHex)

func mustParseXOnly(h string) *btcec.PublicKey {
	raw, err := hex.DecodeString(h)
	if err != nil {
		panic(fmt.Sprintf("address: bad internal key hex: %v", err))
	}
	key, err := schnorr.ParsePubKey(raw)
	if err != nil {
		panic(fmt.Sprintf("address: bad internal key: %v", err))
	}
	return key
}

// InternalKey returns the fixed, publicly known internal key used for all
// derived addresses.
func InternalKey() *btcec.PublicKey { return numsKey }

// TaggedHash computes sha256(sha256(tag) || sha256(tag) || chunks...), the
// BIP340-style tagged hash used throughout derivation and signing.
func TaggedHash(tag string, chunks ...[]byte) [32]byte {
	tagSum := sha256.Sum256([]byte(tag))
	h := sha256.New()
	h.Write(tagSum[:])
	h.Write(tagSum[:])
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CommitmentLeafHash returns the tapleaf hash of a commitment root: the leaf
// script is the 32-byte root itself under LeafVersion.
func CommitmentLeafHash(root [32]byte) [32]byte {
	return TaggedHash(tagLeaf, []byte{LeafVersion, 32}, root[:])
}

// outputKey computes the tweaked output key for a commitment root:
// tweak = H(xonly(internal) || leafHash(root)), output = internal + tweak*G.
// It returns the resulting key and the parity bit of its y coordinate, which
// the control block must carry so verifiers can reconstruct the full point.
func outputKey(root [32]byte) (*btcec.PublicKey, byte, error) {
	leaf := CommitmentLeafHash(root)
	tweak := TaggedHash(tagTweak, schnorr.SerializePubKey(numsKey), leaf[:])

	var t btcec.ModNScalar
	if overflow := t.SetBytes(&tweak); overflow != 0 {
		return nil, 0, fmt.Errorf("address: tweak overflows group order")
	}

	var internal, tweakPoint, result btcec.JacobianPoint
	numsKey.AsJacobian(&internal)
	btcec.ScalarBaseMultNonConst(&t, &tweakPoint)
	btcec.AddNonConst(&internal, &tweakPoint, &result)
	if result.Z.IsZero() {
		return nil, 0, fmt.Errorf("address: tweaked key is the point at infinity")
	}
	result.ToAffine()

	key := btcec.NewPublicKey(&result.X, &result.Y)
	var parity byte
	if result.Y.IsOdd() {
		parity = 1
	}
	return key, parity, nil
}

// ControlBlock builds the script-path control block for a commitment root:
// leaf version with the output-key parity bit, followed by the x-only
// internal key. The merkle path is empty because the commitment tree has a
// single leaf.
func ControlBlock(root [32]byte) ([]byte, error) {
	_, parity, err := outputKey(root)
	if err != nil {
		return nil, err
	}
	cb := make([]byte, 0, 33)
	cb = append(cb, LeafVersion|parity)
	cb = append(cb, schnorr.SerializePubKey(numsKey)...)
	return cb, nil
}
