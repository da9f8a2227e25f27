package network

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// RPCClient is a JSON-RPC 1.0 client for a node's RPC interface. It handles
// request serialization, basic auth, and response parsing; the NodeClient
// methods are built on top of Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ NodeClient = (*RPCClient)(nil)

// rpcRequest is a JSON-RPC 1.0 request payload.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is a JSON-RPC 1.0 response payload.
type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError is an error object returned by the JSON-RPC server.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a JSON-RPC client for the given node. Basic auth is
// used when cfg.User is non-empty; the underlying HTTP client pools
// connections for reuse.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method on the node. A nil params sends an empty
// array; a nil result discards the response body. Transport failures map to
// ErrConnectionFailed, malformed responses to ErrInvalidResponse, and
// RPC-level errors are returned with the server's code and message.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var rpcResp rpcResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<24)).Decode(&rpcResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, resp.StatusCode)
		}
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("network: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// coinToBase converts a coin-unit float64 amount (as the RPC node reports
// values) to base units, rounding to avoid float truncation.
func coinToBase(coins float64) uint64 {
	return uint64(math.Round(coins * 1e8))
}

// baseToCoin converts base units to the coin-unit float the node expects.
func baseToCoin(base uint64) float64 {
	return float64(base) / 1e8
}

// Broadcast submits a serialized transaction via sendrawtransaction.
// Node-side rejections are wrapped with ErrBroadcastRejected.
func (c *RPCClient) Broadcast(ctx context.Context, rawTx []byte) (chainhash.Hash, error) {
	var txidStr string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{hex.EncodeToString(rawTx)}, &txidStr); err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %v", ErrBroadcastRejected, err)
	}
	txid, err := chainhash.NewHashFromStr(txidStr)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: bad txid %q", ErrInvalidResponse, txidStr)
	}
	return *txid, nil
}

// gettxoutResult maps the JSON fields of the gettxout call. The pointer form
// at the call site distinguishes JSON null (spent output) from a present
// result.
type gettxoutResult struct {
	Value        float64 `json:"value"`
	Asset        string  `json:"asset"`
	ScriptPubKey struct {
		Hex string `json:"hex"`
	} `json:"scriptPubKey"`
}

// UTXO fetches one unspent output via gettxout. A spent or unknown output is
// reported as ErrNotFound.
func (c *RPCClient) UTXO(ctx context.Context, txid chainhash.Hash, vout uint32) (*Utxo, error) {
	var result *gettxoutResult
	if err := c.Call(ctx, "gettxout", []interface{}{txid.String(), vout}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: output %s:%d is spent or unknown", ErrNotFound, txid, vout)
	}

	script, err := hex.DecodeString(result.ScriptPubKey.Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: bad scriptPubKey hex: %v", ErrInvalidResponse, err)
	}
	asset, err := AssetIDFromHex(result.Asset)
	if err != nil {
		return nil, err
	}
	return &Utxo{
		TxID:         txid,
		Vout:         vout,
		Amount:       coinToBase(result.Value),
		Asset:        asset,
		ScriptPubKey: script,
	}, nil
}

// RawTransaction fetches serialized transaction bytes via getrawtransaction.
func (c *RPCClient) RawTransaction(ctx context.Context, txid chainhash.Hash) ([]byte, error) {
	var rawHex string
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txid.String(), false}, &rawHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("%w: bad tx hex: %v", ErrInvalidResponse, err)
	}
	return raw, nil
}

// SendToAddress funds an address from the node wallet via sendtoaddress.
func (c *RPCClient) SendToAddress(ctx context.Context, addr string, amount uint64) (chainhash.Hash, error) {
	var txidStr string
	if err := c.Call(ctx, "sendtoaddress", []interface{}{addr, baseToCoin(amount)}, &txidStr); err != nil {
		return chainhash.Hash{}, err
	}
	txid, err := chainhash.NewHashFromStr(txidStr)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: bad txid %q", ErrInvalidResponse, txidStr)
	}
	return *txid, nil
}

// NewAddress returns a fresh wallet address via getnewaddress.
func (c *RPCClient) NewAddress(ctx context.Context) (string, error) {
	var addr string
	if err := c.Call(ctx, "getnewaddress", nil, &addr); err != nil {
		return "", err
	}
	return addr, nil
}

// GenerateBlocks mines n blocks to a throwaway wallet address via
// generatetoaddress. Regtest only.
func (c *RPCClient) GenerateBlocks(ctx context.Context, n uint32) ([]chainhash.Hash, error) {
	addr, err := c.NewAddress(ctx)
	if err != nil {
		return nil, err
	}
	var hashStrs []string
	if err := c.Call(ctx, "generatetoaddress", []interface{}{n, addr}, &hashStrs); err != nil {
		return nil, err
	}
	hashes := make([]chainhash.Hash, len(hashStrs))
	for i, s := range hashStrs {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bad block hash %q", ErrInvalidResponse, s)
		}
		hashes[i] = *h
	}
	return hashes, nil
}

// GenesisHash returns the hash of block 0 via getblockhash.
func (c *RPCClient) GenesisHash(ctx context.Context) (chainhash.Hash, error) {
	var hashStr string
	if err := c.Call(ctx, "getblockhash", []interface{}{0}, &hashStr); err != nil {
		return chainhash.Hash{}, err
	}
	h, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: bad block hash %q", ErrInvalidResponse, hashStr)
	}
	return *h, nil
}
