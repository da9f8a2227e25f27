package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestNode starts an httptest server answering JSON-RPC calls through
// handle, and returns a client pointed at it.
func newTestNode(t *testing.T, handle func(method string, params []interface{}) (interface{}, *rpcError)) *RPCClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]interface{}{"id": req.ID, "result": result, "error": rpcErr}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return NewRPCClient(RPCConfig{URL: srv.URL, User: "user", Password: "pass"})
}

func TestCallRoundTrip(t *testing.T) {
	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "getblockcount", method)
		assert.Empty(t, params)
		return 150, nil
	})

	var count int
	require.NoError(t, client.Call(context.Background(), "getblockcount", nil, &count))
	assert.Equal(t, 150, count)
}

func TestCallRPCError(t *testing.T) {
	client := newTestNode(t, func(string, []interface{}) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -5, Message: "No such mempool transaction"}
	})

	err := client.Call(context.Background(), "getrawtransaction", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-5")
	assert.Contains(t, err.Error(), "No such mempool transaction")
}

func TestCallIDMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":999,"result":1,"error":null}`))
	}))
	defer srv.Close()

	client := NewRPCClient(RPCConfig{URL: srv.URL})
	err := client.Call(context.Background(), "getblockcount", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCallConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	client := NewRPCClient(RPCConfig{URL: srv.URL})
	err := client.Call(context.Background(), "getblockcount", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestCallHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewRPCClient(RPCConfig{URL: srv.URL})
	err := client.Call(context.Background(), "getblockcount", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestCallMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewRPCClient(RPCConfig{URL: srv.URL})
	err := client.Call(context.Background(), "getblockcount", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBroadcast(t *testing.T) {
	rawTx := []byte{0x02, 0x00, 0x00, 0x00}
	want := chainhash.DoubleHashH(rawTx)

	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "sendrawtransaction", method)
		require.Len(t, params, 1)
		assert.Equal(t, hex.EncodeToString(rawTx), params[0])
		return want.String(), nil
	})

	txid, err := client.Broadcast(context.Background(), rawTx)
	require.NoError(t, err)
	assert.Equal(t, want, txid)
}

func TestBroadcastRejected(t *testing.T) {
	client := newTestNode(t, func(string, []interface{}) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -26, Message: "non-mandatory-script-verify-flag"}
	})

	_, err := client.Broadcast(context.Background(), []byte{0x02})
	assert.ErrorIs(t, err, ErrBroadcastRejected)
}

func TestUTXO(t *testing.T) {
	txid := chainhash.Hash{0x0a, 0x0b}
	asset := AssetID{0x11, 0x22}

	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "gettxout", method)
		require.Len(t, params, 2)
		assert.Equal(t, txid.String(), params[0])
		return map[string]interface{}{
			"value":        1.0,
			"asset":        asset.String(),
			"scriptPubKey": map[string]interface{}{"hex": "51201122"},
		}, nil
	})

	utxo, err := client.UTXO(context.Background(), txid, 1)
	require.NoError(t, err)
	assert.Equal(t, txid, utxo.TxID)
	assert.Equal(t, uint32(1), utxo.Vout)
	assert.Equal(t, uint64(100_000_000), utxo.Amount)
	assert.Equal(t, asset, utxo.Asset)
	assert.Equal(t, []byte{0x51, 0x20, 0x11, 0x22}, utxo.ScriptPubKey)
}

func TestUTXOSpent(t *testing.T) {
	// gettxout answers null for spent or unknown outputs.
	client := newTestNode(t, func(string, []interface{}) (interface{}, *rpcError) {
		return nil, nil
	})

	_, err := client.UTXO(context.Background(), chainhash.Hash{0x01}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRawTransaction(t *testing.T) {
	raw := []byte{0x02, 0x00, 0x00, 0x00, 0x01}
	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "getrawtransaction", method)
		return hex.EncodeToString(raw), nil
	})

	got, err := client.RawTransaction(context.Background(), chainhash.Hash{0x01})
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestSendToAddressCoinConversion(t *testing.T) {
	want := chainhash.Hash{0x0c}
	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "sendtoaddress", method)
		require.Len(t, params, 2)
		assert.Equal(t, "ert1qdest", params[0])
		assert.Equal(t, 0.1, params[1]) // 10_000_000 base units
		return want.String(), nil
	})

	txid, err := client.SendToAddress(context.Background(), "ert1qdest", 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, want, txid)
}

func TestGenerateBlocks(t *testing.T) {
	blocks := []chainhash.Hash{{0x01}, {0x02}}
	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		switch method {
		case "getnewaddress":
			return "ert1qminer", nil
		case "generatetoaddress":
			require.Len(t, params, 2)
			assert.Equal(t, float64(2), params[0])
			assert.Equal(t, "ert1qminer", params[1])
			return []string{blocks[0].String(), blocks[1].String()}, nil
		default:
			t.Fatalf("unexpected method %s", method)
			return nil, nil
		}
	})

	hashes, err := client.GenerateBlocks(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, blocks, hashes)
}

func TestGenesisHash(t *testing.T) {
	want := chainhash.Hash{0x0d, 0x0e}
	client := newTestNode(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		assert.Equal(t, "getblockhash", method)
		require.Len(t, params, 1)
		assert.Equal(t, float64(0), params[0])
		return want.String(), nil
	})

	got, err := client.GenesisHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCoinConversion(t *testing.T) {
	assert.Equal(t, uint64(100_000_000), coinToBase(1.0))
	assert.Equal(t, uint64(10_000), coinToBase(0.0001))
	// 0.1 has no exact float64 representation; rounding must absorb it.
	assert.Equal(t, uint64(10_000_000), coinToBase(0.1))
	assert.Equal(t, 1.0, baseToCoin(100_000_000))
}

func TestAssetIDHex(t *testing.T) {
	var a AssetID
	for i := range a {
		a[i] = byte(i)
	}

	parsed, err := AssetIDFromHex(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	// Display form is byte-reversed, matching txid rendering.
	assert.Equal(t, "1f", a.String()[:2])

	_, err = AssetIDFromHex("zz")
	assert.ErrorIs(t, err, ErrInvalidResponse)
	_, err = AssetIDFromHex("0011")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestUtxoOutPoint(t *testing.T) {
	u := &Utxo{TxID: chainhash.Hash{0x01}, Vout: 3}
	assert.Contains(t, u.OutPoint(), ":3")
}
