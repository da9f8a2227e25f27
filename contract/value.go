package contract

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ValueType identifies the type of a compile-time argument or witness value.
// The set is closed: contracts declare parameters and witnesses using exactly
// these names.
type ValueType uint8

const (
	// TypeU64 is an unsigned 64-bit integer.
	TypeU64 ValueType = iota + 1
	// TypeBool is a boolean.
	TypeBool
	// TypeBytes is a variable-length byte string.
	TypeBytes
	// TypeBytes32 is a 32-byte string (hashes, commitment roots).
	TypeBytes32
	// TypePubkey is a 32-byte x-only public key.
	TypePubkey
	// TypeSignature is a 64-byte schnorr signature.
	TypeSignature
)

var typeNames = map[ValueType]string{
	TypeU64:       "u64",
	TypeBool:      "bool",
	TypeBytes:     "bytes",
	TypeBytes32:   "bytes32",
	TypePubkey:    "pubkey",
	TypeSignature: "signature",
}

func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseValueType parses a declared type name into a ValueType.
func ParseValueType(name string) (ValueType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown value type %q", ErrParse, name)
}

// Value is an immutable typed value bound to a parameter or witness name.
// The zero Value is invalid; use the constructors.
type Value struct {
	typ ValueType
	num uint64
	b   bool
	raw []byte
}

// U64 creates an unsigned 64-bit integer value.
func U64(v uint64) Value { return Value{typ: TypeU64, num: v} }

// Bool creates a boolean value.
func Bool(v bool) Value { return Value{typ: TypeBool, b: v} }

// Bytes creates a variable-length byte string value. The slice is copied.
func Bytes(b []byte) Value {
	return Value{typ: TypeBytes, raw: append([]byte(nil), b...)}
}

// Bytes32 creates a 32-byte string value.
func Bytes32(b [32]byte) Value { return Value{typ: TypeBytes32, raw: b[:]} }

// Pubkey creates a 32-byte x-only public key value.
func Pubkey(b [32]byte) Value { return Value{typ: TypePubkey, raw: b[:]} }

// Signature creates a 64-byte schnorr signature value.
func Signature(b [64]byte) Value { return Value{typ: TypeSignature, raw: b[:]} }

// NewValue creates a Value of the given type from a raw literal. Numeric and
// boolean literals use num/b; byte-string types take their payload from raw
// and enforce the declared length.
func NewValue(typ ValueType, num uint64, b bool, raw []byte) (Value, error) {
	switch typ {
	case TypeU64:
		return U64(num), nil
	case TypeBool:
		return Bool(b), nil
	case TypeBytes:
		return Bytes(raw), nil
	case TypeBytes32, TypePubkey:
		if len(raw) != 32 {
			return Value{}, fmt.Errorf("%w: %s requires 32 bytes, got %d", ErrBadValue, typ, len(raw))
		}
		return Value{typ: typ, raw: append([]byte(nil), raw...)}, nil
	case TypeSignature:
		if len(raw) != 64 {
			return Value{}, fmt.Errorf("%w: signature requires 64 bytes, got %d", ErrBadValue, len(raw))
		}
		return Value{typ: typ, raw: append([]byte(nil), raw...)}, nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrBadValue, typ)
	}
}

// Type returns the value's type.
func (v Value) Type() ValueType { return v.typ }

// Uint64 returns the numeric payload of a u64 value.
func (v Value) Uint64() uint64 { return v.num }

// Bool returns the payload of a boolean value.
func (v Value) Bool() bool { return v.b }

// Raw returns a copy of the byte payload of a byte-string value.
func (v Value) Raw() []byte { return append([]byte(nil), v.raw...) }

// Encode returns the canonical wire encoding of the value: 8-byte big-endian
// for u64, a single byte for bool, and the raw payload for byte-string types.
// Two equal values always encode to identical bytes.
func (v Value) Encode() []byte {
	switch v.typ {
	case TypeU64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v.num)
		return buf[:]
	case TypeBool:
		if v.b {
			return []byte{0x01}
		}
		return []byte{0x00}
	default:
		return append([]byte(nil), v.raw...)
	}
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(other Value) bool {
	return v.typ == other.typ && v.num == other.num && v.b == other.b &&
		bytes.Equal(v.raw, other.raw)
}

// valueJSON is the serialized form of a Value: an explicit type tag plus a
// literal (JSON number for u64, JSON bool, hex string for byte types).
type valueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var lit interface{}
	switch v.typ {
	case TypeU64:
		lit = v.num
	case TypeBool:
		lit = v.b
	default:
		lit = hex.EncodeToString(v.raw)
	}
	litRaw, err := json.Marshal(lit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.typ.String(), Value: litRaw})
}

// UnmarshalJSON decodes a value from its {"type": ..., "value": ...} form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var vj valueJSON
	if err := json.Unmarshal(data, &vj); err != nil {
		return fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	typ, err := ParseValueType(strings.TrimSpace(vj.Type))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadValue, vj.Type)
	}

	switch typ {
	case TypeU64:
		var n uint64
		if err := json.Unmarshal(vj.Value, &n); err != nil {
			return fmt.Errorf("%w: u64 literal: %v", ErrBadValue, err)
		}
		*v = U64(n)
	case TypeBool:
		var b bool
		if err := json.Unmarshal(vj.Value, &b); err != nil {
			return fmt.Errorf("%w: bool literal: %v", ErrBadValue, err)
		}
		*v = Bool(b)
	default:
		var s string
		if err := json.Unmarshal(vj.Value, &s); err != nil {
			return fmt.Errorf("%w: hex literal: %v", ErrBadValue, err)
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fmt.Errorf("%w: hex literal: %v", ErrBadValue, err)
		}
		parsed, err := NewValue(typ, 0, false, raw)
		if err != nil {
			return err
		}
		*v = parsed
	}
	return nil
}

// Arguments maps parameter names to compile-time values. Order is irrelevant.
type Arguments map[string]Value

// WitnessValues maps witness names to spend-time values.
type WitnessValues map[string]Value

// Schema maps witness names to their declared value types.
type Schema map[string]ValueType

// clone returns a copy of the schema.
func (s Schema) clone() Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ParseArguments decodes an Arguments map from a JSON document of the
// structured key-value form described for argument files.
func ParseArguments(data []byte) (Arguments, error) {
	var args Arguments
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	return args, nil
}

// ParseWitnessValues decodes a WitnessValues map from a JSON document.
func ParseWitnessValues(data []byte) (WitnessValues, error) {
	var wv WitnessValues
	if err := json.Unmarshal(data, &wv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	return wv, nil
}
