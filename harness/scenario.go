package harness

import (
	"github.com/covenantlabs/libcovenant-go/contract"
	"github.com/covenantlabs/libcovenant-go/spend"
)

// Default funding and fee amounts, in base units.
const (
	DefaultFunding uint64 = 100_000_000
	DefaultFee     uint64 = 10_000
)

// Scenario describes one spend exercise for a compiled contract: fund the
// contract address, then build, finalize and broadcast a transaction that
// spends the funds back to a node wallet address.
type Scenario struct {
	name     string
	contract *contract.CompiledContract
	witness  spend.Provider
	funding  uint64
	fee      uint64
	lockTime uint32
	sequence uint32
	seqSet   bool
}

// NewScenario creates a scenario with default funding (1 coin), default fee,
// and an empty witness.
func NewScenario(name string, c *contract.CompiledContract) *Scenario {
	return &Scenario{
		name:     name,
		contract: c,
		witness:  spend.EmptyWitness,
		funding:  DefaultFunding,
		fee:      DefaultFee,
	}
}

// Witness sets the witness provider invoked with the signature hash.
func (s *Scenario) Witness(p spend.Provider) *Scenario {
	s.witness = p
	return s
}

// Funding sets the amount sent to the contract address.
func (s *Scenario) Funding(amount uint64) *Scenario {
	s.funding = amount
	return s
}

// Fee sets the fee paid by the spending transaction.
func (s *Scenario) Fee(fee uint64) *Scenario {
	s.fee = fee
	return s
}

// LockTime sets the spending transaction's lock time.
func (s *Scenario) LockTime(lockTime uint32) *Scenario {
	s.lockTime = lockTime
	return s
}

// Sequence sets the spending input's sequence number.
func (s *Scenario) Sequence(sequence uint32) *Scenario {
	s.sequence = sequence
	s.seqSet = true
	return s
}
