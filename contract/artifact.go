package contract

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Artifact is the serialized form of a CompiledContract: enough to derive the
// contract's address and redeem funds later without recompiling from source.
// The encoding round-trips exactly.
type Artifact struct {
	CommitmentRoot string            `json:"commitment_root"`        // hex, 32 bytes
	Bytecode       string            `json:"bytecode"`               // base64
	WitnessSchema  map[string]string `json:"witness_schema"`         // name -> type name
	GenesisHash    string            `json:"genesis_hash,omitempty"` // hex, optional
}

// Artifact returns the serialized form of the compiled contract.
func (c *CompiledContract) Artifact() *Artifact {
	schema := make(map[string]string, len(c.schema))
	for name, typ := range c.schema {
		schema[name] = typ.String()
	}
	a := &Artifact{
		CommitmentRoot: hex.EncodeToString(c.root[:]),
		Bytecode:       base64.StdEncoding.EncodeToString(c.bytecode),
		WitnessSchema:  schema,
	}
	if c.genesis != nil {
		a.GenesisHash = c.genesis.String()
	}
	return a
}

// FromArtifact reconstructs a CompiledContract from its serialized form.
func FromArtifact(a *Artifact) (*CompiledContract, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrBadArtifact)
	}
	rootBytes, err := hex.DecodeString(a.CommitmentRoot)
	if err != nil || len(rootBytes) != 32 {
		return nil, fmt.Errorf("%w: commitment root must be 32 hex bytes", ErrBadArtifact)
	}
	bytecode, err := base64.StdEncoding.DecodeString(a.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrBadArtifact, err)
	}

	schema := make(Schema, len(a.WitnessSchema))
	for name, typeName := range a.WitnessSchema {
		typ, err := ParseValueType(typeName)
		if err != nil {
			return nil, fmt.Errorf("%w: witness %q: unknown type %q", ErrBadArtifact, name, typeName)
		}
		schema[name] = typ
	}

	c := &CompiledContract{bytecode: bytecode, schema: schema}
	copy(c.root[:], rootBytes)

	if a.GenesisHash != "" {
		genesis, err := chainhash.NewHashFromStr(a.GenesisHash)
		if err != nil {
			return nil, fmt.Errorf("%w: genesis hash: %v", ErrBadArtifact, err)
		}
		c.genesis = genesis
	}
	return c, nil
}

// Encode serializes the artifact to JSON.
func (a *Artifact) Encode() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// DecodeArtifact parses a JSON artifact document.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	return &a, nil
}
