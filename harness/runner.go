package harness

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/covenantlabs/libcovenant-go/address"
	"github.com/covenantlabs/libcovenant-go/network"
	"github.com/covenantlabs/libcovenant-go/spend"
)

// Result is the outcome of one scenario.
type Result struct {
	Name string
	TxID chainhash.Hash
	Err  error
}

// Success reports whether the scenario broadcast its spending transaction.
func (r Result) Success() bool { return r.Err == nil }

// Summary aggregates scenario results.
type Summary struct {
	Results []Result
}

// Passed returns the number of successful scenarios.
func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Success() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed scenarios.
func (s Summary) Failed() int { return len(s.Results) - s.Passed() }

// Runner executes scenarios against a ledger endpoint. It works with any
// NodeClient; node process lifecycle, retries and reporting belong to the
// caller.
type Runner struct {
	client network.NodeClient
	params *address.Params
}

// NewRunner creates a runner for the given endpoint and network.
func NewRunner(client network.NodeClient, params *address.Params) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client", ErrNilParam)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	return &Runner{client: client, params: params}, nil
}

// Run executes one scenario end to end: fund the contract address, confirm
// the funding, locate the funding utxo by script match, stage and finalize
// the spend, and broadcast it.
func (r *Runner) Run(ctx context.Context, s *Scenario) Result {
	if s == nil {
		return Result{Err: fmt.Errorf("%w: scenario", ErrNilParam)}
	}
	txid, err := r.run(ctx, s)
	return Result{Name: s.name, TxID: txid, Err: err}
}

// RunAll executes scenarios in order and collects their results.
func (r *Runner) RunAll(ctx context.Context, scenarios ...*Scenario) Summary {
	summary := Summary{Results: make([]Result, 0, len(scenarios))}
	for _, s := range scenarios {
		summary.Results = append(summary.Results, r.Run(ctx, s))
	}
	return summary
}

func (r *Runner) run(ctx context.Context, s *Scenario) (chainhash.Hash, error) {
	if s == nil || s.contract == nil {
		return chainhash.Hash{}, fmt.Errorf("%w: scenario contract", ErrNilParam)
	}

	addr, err := s.contract.Address(r.params)
	if err != nil {
		return chainhash.Hash{}, err
	}

	fundingTxID, err := r.client.SendToAddress(ctx, addr.String(), s.funding)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("harness: fund contract: %w", err)
	}
	if _, err := r.client.GenerateBlocks(ctx, 1); err != nil {
		return chainhash.Hash{}, fmt.Errorf("harness: confirm funding: %w", err)
	}

	utxo, err := r.findFundingUtxo(ctx, fundingTxID, addr)
	if err != nil {
		return chainhash.Hash{}, err
	}

	genesis, err := r.client.GenesisHash(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("harness: genesis hash: %w", err)
	}

	builder, err := spend.New(s.contract, *utxo)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if _, bound := s.contract.GenesisHash(); !bound {
		if err := builder.GenesisHash(genesis); err != nil {
			return chainhash.Hash{}, err
		}
	}
	if s.lockTime != 0 {
		if err := builder.LockTime(s.lockTime); err != nil {
			return chainhash.Hash{}, err
		}
	}
	if s.seqSet {
		if err := builder.Sequence(s.sequence); err != nil {
			return chainhash.Hash{}, err
		}
	}

	destination, err := r.client.NewAddress(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("harness: destination address: %w", err)
	}
	if err := builder.AddOutputAddress(destination, r.params, utxo.Amount-s.fee, utxo.Asset); err != nil {
		return chainhash.Hash{}, err
	}
	if err := builder.AddFee(s.fee, utxo.Asset); err != nil {
		return chainhash.Hash{}, err
	}

	tx, err := spend.Complete(builder, s.witness)
	if err != nil {
		return chainhash.Hash{}, err
	}

	txid, err := r.client.Broadcast(ctx, tx.Serialize())
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("harness: broadcast: %w", err)
	}
	return txid, nil
}

// findFundingUtxo fetches the funding transaction and locates the output
// paying the contract address.
func (r *Runner) findFundingUtxo(ctx context.Context, fundingTxID chainhash.Hash, addr *address.Address) (*network.Utxo, error) {
	raw, err := r.client.RawTransaction(ctx, fundingTxID)
	if err != nil {
		return nil, fmt.Errorf("harness: funding transaction: %w", err)
	}
	fundingTx, err := spend.Deserialize(raw)
	if err != nil {
		return nil, err
	}

	for vout, out := range fundingTx.Outputs {
		// Wallet change is typically blinded; only an explicit output can
		// fund a contract spend.
		if out.IsConfidential() || !addr.Matches(out.Script) {
			continue
		}
		return &network.Utxo{
			TxID:         fundingTxID,
			Vout:         uint32(vout),
			Amount:       out.Value,
			Asset:        out.Asset,
			ScriptPubKey: append([]byte(nil), out.Script...),
		}, nil
	}
	return nil, fmt.Errorf("%w: tx %s pays no output to %s", ErrFundingNotFound, fundingTxID, addr)
}
