package spend

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx() *Transaction {
	return &Transaction{
		Version: txVersion,
		Inputs: []*TxIn{{
			PrevTxID:  chainhash.Hash{0x01, 0x02, 0x03},
			PrevIndex: 1,
			Sequence:  0xfffffffe,
			Witness: [][]byte{
				{0xde, 0xad},
				{0xbe, 0xef, 0x01},
				{0xbe, 0xaa},
			},
		}},
		Outputs: []*TxOut{
			{Asset: testAsset, Value: spendAmount, Script: destScript()},
			{Asset: testAsset, Value: feeAmount}, // fee
		},
		LockTime: 101,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTx()
	raw := tx.Serialize()

	back, err := Deserialize(raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Version, back.Version)
	assert.Equal(t, tx.LockTime, back.LockTime)
	require.Len(t, back.Inputs, 1)
	assert.Equal(t, tx.Inputs[0].PrevTxID, back.Inputs[0].PrevTxID)
	assert.Equal(t, tx.Inputs[0].PrevIndex, back.Inputs[0].PrevIndex)
	assert.Equal(t, tx.Inputs[0].Sequence, back.Inputs[0].Sequence)
	assert.Equal(t, tx.Inputs[0].Witness, back.Inputs[0].Witness)
	require.Len(t, back.Outputs, 2)
	assert.Equal(t, tx.Outputs[0].Value, back.Outputs[0].Value)
	assert.Equal(t, tx.Outputs[0].Asset, back.Outputs[0].Asset)
	assert.Equal(t, tx.Outputs[0].Script, back.Outputs[0].Script)
	assert.True(t, back.Outputs[1].IsFee())

	// Re-serializing reproduces the bytes exactly.
	assert.Equal(t, raw, back.Serialize())
}

func TestTransactionRoundTripNoWitness(t *testing.T) {
	tx := sampleTx()
	tx.Inputs[0].Witness = nil

	raw := tx.Serialize()
	assert.Equal(t, byte(0x00), raw[4]) // flag byte follows the version

	back, err := Deserialize(raw)
	require.NoError(t, err)
	assert.Empty(t, back.Inputs[0].Witness)
	assert.Equal(t, raw, back.Serialize())
}

func TestTxIDIgnoresWitness(t *testing.T) {
	tx := sampleTx()
	id := tx.TxID()

	tx.Inputs[0].Witness[0] = []byte{0xff, 0xff, 0xff}
	assert.Equal(t, id, tx.TxID())

	// But changing an output changes the id.
	tx.Outputs[0].Value++
	assert.NotEqual(t, id, tx.TxID())
}

func TestTxIDStable(t *testing.T) {
	tx := sampleTx()
	assert.Equal(t, tx.TxID(), tx.TxID())

	back, err := Deserialize(tx.Serialize())
	require.NoError(t, err)
	assert.Equal(t, tx.TxID(), back.TxID())
}

func TestSerializeOutputFormat(t *testing.T) {
	out := &TxOut{Asset: testAsset, Value: 0x0102030405060708, Script: []byte{0x51}}
	raw := serializeTxOut(out)

	require.Len(t, raw, 1+32+1+8+1+1+1)
	assert.Equal(t, byte(prefixExplicit), raw[0])
	assert.Equal(t, testAsset[:], raw[1:33])
	assert.Equal(t, byte(prefixExplicit), raw[33])
	// Explicit values serialize big-endian, unlike the rest of the encoding.
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, raw[34:42])
	assert.Equal(t, byte(prefixNil), raw[42])
	assert.Equal(t, []byte{0x01, 0x51}, raw[43:])
}

// blindedCommitment fabricates a 33-byte commitment with the given prefix.
func blindedCommitment(prefix byte) []byte {
	c := make([]byte, 33)
	c[0] = prefix
	for i := 1; i < len(c); i++ {
		c[i] = byte(i)
	}
	return c
}

func TestRoundTripConfidentialOutput(t *testing.T) {
	tx := sampleTx()
	tx.Inputs[0].Witness = nil
	blinded := &TxOut{
		AssetCommitment: blindedCommitment(0x0a),
		ValueCommitment: blindedCommitment(0x09),
		Nonce:           blindedCommitment(0x02),
		Script:          destScript(),
	}
	tx.Outputs = append([]*TxOut{blinded}, tx.Outputs...)

	raw := tx.Serialize()
	back, err := Deserialize(raw)
	require.NoError(t, err)
	require.Len(t, back.Outputs, 3)

	assert.True(t, back.Outputs[0].IsConfidential())
	assert.Equal(t, blinded.AssetCommitment, back.Outputs[0].AssetCommitment)
	assert.Equal(t, blinded.ValueCommitment, back.Outputs[0].ValueCommitment)
	assert.Equal(t, blinded.Nonce, back.Outputs[0].Nonce)
	assert.False(t, back.Outputs[1].IsConfidential())

	assert.Equal(t, raw, back.Serialize())
}

func TestDeserializeBadOutputPrefix(t *testing.T) {
	tx := sampleTx()
	tx.Inputs[0].Witness = nil
	raw := tx.Serialize()

	// First output's asset prefix sits right after version, flag, input
	// count, one input, and the output count.
	offset := 4 + 1 + 1 + (32 + 4 + 1 + 4) + 1
	require.Equal(t, byte(prefixExplicit), raw[offset])

	mangled := append([]byte(nil), raw...)
	mangled[offset] = 0x07 // neither explicit nor a commitment
	_, err := Deserialize(mangled)
	assert.ErrorIs(t, err, ErrMalformedTx)
}

func TestDeserializeTruncated(t *testing.T) {
	raw := sampleTx().Serialize()
	for _, n := range []int{0, 3, 5, 20, len(raw) / 2, len(raw) - 1} {
		_, err := Deserialize(raw[:n])
		assert.ErrorIs(t, err, ErrMalformedTx, "truncated at %d", n)
	}
}

func TestDeserializeTrailingBytes(t *testing.T) {
	raw := append(sampleTx().Serialize(), 0x00)
	_, err := Deserialize(raw)
	assert.ErrorIs(t, err, ErrMalformedTx)
}

func TestDeserializeBadFlag(t *testing.T) {
	raw := sampleTx().Serialize()
	raw[4] = 0x02
	_, err := Deserialize(raw)
	assert.ErrorIs(t, err, ErrMalformedTx)
}

func TestDeserializeWitnessLengthOverrun(t *testing.T) {
	// A witness item claiming more bytes than remain must fail cleanly
	// instead of allocating the claimed length.
	tx := sampleTx()
	raw := tx.Serialize()
	idx := bytes.Index(raw, []byte{0xbe, 0xaa})
	require.Greater(t, idx, 0)
	raw[idx-1] = 0xfb // inflate the final item's length prefix

	_, err := Deserialize(raw)
	assert.ErrorIs(t, err, ErrMalformedTx)
}

func TestCompactSizeRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000} {
		var buf bytes.Buffer
		writeCompactSize(&buf, n)

		got, err := readCompactSize(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, n, got, "n=%d", n)
	}
}

func TestCompactSizeBoundaries(t *testing.T) {
	var buf bytes.Buffer
	writeCompactSize(&buf, 0xfc)
	assert.Equal(t, []byte{0xfc}, buf.Bytes())

	buf.Reset()
	writeCompactSize(&buf, 0xfd)
	assert.Equal(t, []byte{0xfd, 0xfd, 0x00}, buf.Bytes())

	buf.Reset()
	writeCompactSize(&buf, 0x10000)
	assert.Equal(t, []byte{0xfe, 0x00, 0x00, 0x01, 0x00}, buf.Bytes())
}

func TestTxIDHexForm(t *testing.T) {
	id := sampleTx().TxID()
	require.Len(t, id.String(), 64)
}
