package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Value tests ---

func TestValueConstructorsAndAccessors(t *testing.T) {
	assert.Equal(t, TypeU64, U64(7).Type())
	assert.Equal(t, uint64(7), U64(7).Uint64())

	assert.Equal(t, TypeBool, Bool(true).Type())
	assert.True(t, Bool(true).Bool())

	raw := []byte{0x01, 0x02}
	v := Bytes(raw)
	assert.Equal(t, TypeBytes, v.Type())
	assert.Equal(t, raw, v.Raw())

	// Bytes copies its input.
	raw[0] = 0xff
	assert.Equal(t, byte(0x01), v.Raw()[0])
}

func TestValueEncode(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x00}, U64(256).Encode())
	assert.Equal(t, []byte{0x01}, Bool(true).Encode())
	assert.Equal(t, []byte{0x00}, Bool(false).Encode())

	var sig [64]byte
	sig[0] = 0xab
	assert.Equal(t, sig[:], Signature(sig).Encode())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, U64(5).Equal(U64(5)))
	assert.False(t, U64(5).Equal(U64(6)))
	assert.False(t, U64(5).Equal(Bool(true)))
	assert.True(t, Bytes([]byte{1}).Equal(Bytes([]byte{1})))
}

func TestNewValueLengthChecks(t *testing.T) {
	_, err := NewValue(TypeBytes32, 0, false, make([]byte, 31))
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = NewValue(TypeSignature, 0, false, make([]byte, 63))
	assert.ErrorIs(t, err, ErrBadValue)

	v, err := NewValue(TypePubkey, 0, false, make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, TypePubkey, v.Type())
}

// --- JSON round-trip tests ---

func TestValueJSONRoundTrip(t *testing.T) {
	var key [32]byte
	key[0] = 0x02
	values := []Value{
		U64(123456),
		Bool(true),
		Bytes([]byte{0xde, 0xad}),
		Pubkey(key),
	}
	for _, v := range values {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, v.Equal(back), "round trip %s", v.Type())
	}
}

func TestValueJSONHexPrefix(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"type":"bytes","value":"0xdead"}`), &v))
	assert.Equal(t, []byte{0xde, 0xad}, v.Raw())
}

func TestValueJSONErrors(t *testing.T) {
	cases := []string{
		`{"type":"float","value":1}`,        // unknown type
		`{"type":"u64","value":"nope"}`,     // wrong literal kind
		`{"type":"pubkey","value":"abcd"}`,  // wrong length
		`{"type":"bytes","value":"zz"}`,     // bad hex
	}
	for _, c := range cases {
		var v Value
		err := json.Unmarshal([]byte(c), &v)
		assert.ErrorIs(t, err, ErrBadValue, "input %s", c)
	}
}

func TestParseArguments(t *testing.T) {
	doc := []byte(`{
		"LIMIT": {"type": "u64", "value": 50000},
		"OWNER": {"type": "pubkey", "value": "0000000000000000000000000000000000000000000000000000000000000007"}
	}`)
	args, err := ParseArguments(doc)
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), args["LIMIT"].Uint64())
	assert.Equal(t, TypePubkey, args["OWNER"].Type())

	_, err = ParseArguments([]byte(`{`))
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestParseWitnessValues(t *testing.T) {
	doc := []byte(`{"ok": {"type": "bool", "value": true}}`)
	wv, err := ParseWitnessValues(doc)
	require.NoError(t, err)
	assert.True(t, wv["ok"].Bool())
}

func TestParseValueType(t *testing.T) {
	for _, name := range []string{"u64", "bool", "bytes", "bytes32", "pubkey", "signature"} {
		typ, err := ParseValueType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}
	_, err := ParseValueType("u65")
	assert.ErrorIs(t, err, ErrParse)
}
