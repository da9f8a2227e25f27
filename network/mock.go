package network

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MockNodeClient is a test double for NodeClient. All function fields must be
// set before the corresponding method is called.
type MockNodeClient struct {
	BroadcastFn      func(ctx context.Context, rawTx []byte) (chainhash.Hash, error)
	UTXOFn           func(ctx context.Context, txid chainhash.Hash, vout uint32) (*Utxo, error)
	RawTransactionFn func(ctx context.Context, txid chainhash.Hash) ([]byte, error)
	SendToAddressFn  func(ctx context.Context, addr string, amount uint64) (chainhash.Hash, error)
	NewAddressFn     func(ctx context.Context) (string, error)
	GenerateBlocksFn func(ctx context.Context, n uint32) ([]chainhash.Hash, error)
	GenesisHashFn    func(ctx context.Context) (chainhash.Hash, error)
}

// Compile-time interface check.
var _ NodeClient = (*MockNodeClient)(nil)

func (m *MockNodeClient) Broadcast(ctx context.Context, rawTx []byte) (chainhash.Hash, error) {
	return m.BroadcastFn(ctx, rawTx)
}
func (m *MockNodeClient) UTXO(ctx context.Context, txid chainhash.Hash, vout uint32) (*Utxo, error) {
	return m.UTXOFn(ctx, txid, vout)
}
func (m *MockNodeClient) RawTransaction(ctx context.Context, txid chainhash.Hash) ([]byte, error) {
	return m.RawTransactionFn(ctx, txid)
}
func (m *MockNodeClient) SendToAddress(ctx context.Context, addr string, amount uint64) (chainhash.Hash, error) {
	return m.SendToAddressFn(ctx, addr, amount)
}
func (m *MockNodeClient) NewAddress(ctx context.Context) (string, error) {
	return m.NewAddressFn(ctx)
}
func (m *MockNodeClient) GenerateBlocks(ctx context.Context, n uint32) ([]chainhash.Hash, error) {
	return m.GenerateBlocksFn(ctx, n)
}
func (m *MockNodeClient) GenesisHash(ctx context.Context) (chainhash.Hash, error) {
	return m.GenesisHashFn(ctx)
}
