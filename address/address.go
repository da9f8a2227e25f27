package address

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// Script opcodes used by the supported output templates.
const (
	opFalse       = 0x00
	opData20      = 0x14
	opData32      = 0x20
	op1           = 0x51
	opDup         = 0x76
	opEqual       = 0x87
	opEqualVerify = 0x88
	opHash160     = 0xa9
	opCheckSig    = 0xac
)

// Address is a derived witness-v1 receiving address: the tweaked output key
// as a 32-byte witness program plus the network it encodes for. Addresses are
// immutable; Derive with identical inputs returns byte-identical results.
type Address struct {
	program [32]byte
	params  *Params
	encoded string
}

// Derive computes the taproot-style address committing to the given root on
// the given network. The internal key is the fixed unspendable point, so the
// script path identified by the root is the only spend path.
func Derive(root [32]byte, params *Params) (*Address, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	key, _, err := outputKey(root)
	if err != nil {
		return nil, err
	}

	var program [32]byte
	copy(program[:], schnorr.SerializePubKey(key))

	encoded, err := encodeSegwit(params.Bech32HRP, 1, program[:])
	if err != nil {
		return nil, err
	}
	return &Address{program: program, params: params, encoded: encoded}, nil
}

// Decode parses a witness-v1 address for the given network and recovers the
// identical output script produced at derivation time.
func Decode(addr string, params *Params) (*Address, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	hrp, version, program, err := decodeSegwit(addr)
	if err != nil {
		return nil, err
	}
	if hrp != params.Bech32HRP {
		return nil, fmt.Errorf("%w: prefix %q does not match network %q", ErrBadAddress, hrp, params.Name)
	}
	if version != 1 || len(program) != 32 {
		return nil, fmt.Errorf("%w: expected witness v1 with 32-byte program", ErrBadAddress)
	}

	a := &Address{params: params, encoded: addr}
	copy(a.program[:], program)
	return a, nil
}

// String returns the human-readable encoding.
func (a *Address) String() string { return a.encoded }

// Program returns the 32-byte witness program (the tweaked output key).
func (a *Address) Program() [32]byte { return a.program }

// ScriptPubKey returns the consensus output script: OP_1 <32-byte program>.
func (a *Address) ScriptPubKey() []byte {
	script := make([]byte, 0, 34)
	script = append(script, op1, opData32)
	script = append(script, a.program[:]...)
	return script
}

// Matches reports whether the given output script pays to this address.
func (a *Address) Matches(scriptPubKey []byte) bool {
	return bytes.Equal(a.ScriptPubKey(), scriptPubKey)
}

// ScriptFromAddress converts any supported destination address into its
// output script: witness v0/v1 programs and base58check P2PKH/P2SH. Node
// wallets hand back destination addresses in all of these forms.
func ScriptFromAddress(addr string, params *Params) ([]byte, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}

	if hrp, version, program, err := decodeSegwit(addr); err == nil {
		if hrp != params.Bech32HRP {
			return nil, fmt.Errorf("%w: prefix %q does not match network %q", ErrBadAddress, hrp, params.Name)
		}
		switch {
		case version == 0 && (len(program) == 20 || len(program) == 32):
			script := make([]byte, 0, 2+len(program))
			script = append(script, opFalse, byte(len(program)))
			return append(script, program...), nil
		case version == 1 && len(program) == 32:
			script := make([]byte, 0, 34)
			script = append(script, op1, opData32)
			return append(script, program...), nil
		default:
			return nil, fmt.Errorf("%w: unsupported witness version %d", ErrBadAddress, version)
		}
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil || len(payload) != 20 {
		return nil, fmt.Errorf("%w: %q", ErrBadAddress, addr)
	}
	switch version {
	case params.PubKeyHashPrefix:
		script := make([]byte, 0, 25)
		script = append(script, opDup, opHash160, opData20)
		script = append(script, payload...)
		return append(script, opEqualVerify, opCheckSig), nil
	case params.ScriptHashPrefix:
		script := make([]byte, 0, 23)
		script = append(script, opHash160, opData20)
		script = append(script, payload...)
		return append(script, opEqual), nil
	default:
		return nil, fmt.Errorf("%w: version byte %d not valid for network %q", ErrBadAddress, version, params.Name)
	}
}

// P2PKHAddress encodes a legacy pay-to-pubkey-hash address for the given key.
func P2PKHAddress(pubKey *btcec.PublicKey, params *Params) (string, error) {
	if pubKey == nil {
		return "", fmt.Errorf("%w: public key", ErrNilParam)
	}
	if params == nil {
		return "", fmt.Errorf("%w: params", ErrNilParam)
	}
	return base58.CheckEncode(Hash160(pubKey.SerializeCompressed()), params.PubKeyHashPrefix), nil
}

// Hash160 computes ripemd160(sha256(data)).
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// encodeSegwit encodes a witness program as bech32 (v0) or bech32m (v1+).
func encodeSegwit(hrp string, version byte, program []byte) (string, error) {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	data := append([]byte{version}, converted...)
	if version == 0 {
		return bech32.Encode(hrp, data)
	}
	return bech32.EncodeM(hrp, data)
}

// decodeSegwit decodes a segwit address into (hrp, version, program),
// enforcing the bech32/bech32m checksum rule for the witness version.
func decodeSegwit(addr string) (string, byte, []byte, error) {
	hrp, data, bechVersion, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if len(data) < 1 {
		return "", 0, nil, fmt.Errorf("%w: missing witness version", ErrBadAddress)
	}
	version := data[0]
	if version == 0 && bechVersion != bech32.Version0 {
		return "", 0, nil, fmt.Errorf("%w: witness v0 requires bech32 checksum", ErrBadAddress)
	}
	if version != 0 && bechVersion != bech32.VersionM {
		return "", 0, nil, fmt.Errorf("%w: witness v%d requires bech32m checksum", ErrBadAddress, version)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	return hrp, version, program, nil
}
