package network

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AssetID identifies an asset on a confidential-asset ledger. Like
// transaction hashes, asset ids display as the byte-reversed hex of their
// serialized form.
type AssetID [32]byte

// String returns the display (byte-reversed) hex form.
func (a AssetID) String() string {
	var rev [32]byte
	for i := range a {
		rev[31-i] = a[i]
	}
	return hex.EncodeToString(rev[:])
}

// AssetIDFromHex parses an asset id from its display hex form.
func AssetIDFromHex(s string) (AssetID, error) {
	var a AssetID
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return a, fmt.Errorf("%w: asset id must be 32 hex bytes", ErrInvalidResponse)
	}
	for i := range raw {
		a[31-i] = raw[i]
	}
	return a, nil
}

// Utxo references funds already sent to an address. Utxos are fetched from a
// NodeClient, never fabricated by this module.
type Utxo struct {
	TxID         chainhash.Hash
	Vout         uint32
	Amount       uint64
	Asset        AssetID
	ScriptPubKey []byte
}

// OutPoint returns the utxo's "txid:vout" reference string.
func (u *Utxo) OutPoint() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

// NodeClient abstracts a compatible ledger endpoint: an ephemeral regtest
// node or a persistent/remote one. Calls block until the node answers and may
// fail transiently; no call is retried here, retry policy belongs to the
// caller.
type NodeClient interface {
	// Broadcast submits a serialized transaction and returns its txid.
	Broadcast(ctx context.Context, rawTx []byte) (chainhash.Hash, error)

	// UTXO returns one unspent output. Spent or unknown outputs are
	// reported as ErrNotFound.
	UTXO(ctx context.Context, txid chainhash.Hash, vout uint32) (*Utxo, error)

	// RawTransaction returns the serialized transaction with the given id.
	RawTransaction(ctx context.Context, txid chainhash.Hash) ([]byte, error)

	// SendToAddress funds an address from the node wallet and returns the
	// funding txid.
	SendToAddress(ctx context.Context, addr string, amount uint64) (chainhash.Hash, error)

	// NewAddress returns a fresh destination address from the node wallet.
	NewAddress(ctx context.Context) (string, error)

	// GenerateBlocks mines n blocks (regtest only) and returns their hashes.
	GenerateBlocks(ctx context.Context, n uint32) ([]chainhash.Hash, error)

	// GenesisHash returns the chain's genesis block hash.
	GenesisHash(ctx context.Context) (chainhash.Hash, error)
}
