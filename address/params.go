package address

import "fmt"

// Params selects the version and prefix bytes for one supported network.
// Exactly one fixed set exists per network; address derivation is a pure
// function of (commitment root, Params).
type Params struct {
	// Name is the canonical network name.
	Name string
	// Bech32HRP is the human-readable prefix for witness-program addresses.
	Bech32HRP string
	// PubKeyHashPrefix is the base58check version byte for P2PKH addresses.
	PubKeyHashPrefix byte
	// ScriptHashPrefix is the base58check version byte for P2SH addresses.
	ScriptHashPrefix byte
}

var (
	// LiquidParams are the liquid mainnet parameters.
	LiquidParams = Params{
		Name:             "liquid",
		Bech32HRP:        "ex",
		PubKeyHashPrefix: 57,
		ScriptHashPrefix: 39,
	}

	// TestnetParams are the liquid testnet parameters.
	TestnetParams = Params{
		Name:             "testnet",
		Bech32HRP:        "tex",
		PubKeyHashPrefix: 36,
		ScriptHashPrefix: 19,
	}

	// RegtestParams are the local regtest parameters.
	RegtestParams = Params{
		Name:             "regtest",
		Bech32HRP:        "ert",
		PubKeyHashPrefix: 235,
		ScriptHashPrefix: 75,
	}
)

// ParamsForNetwork returns the parameter set for a network name.
func ParamsForNetwork(name string) (*Params, error) {
	switch name {
	case LiquidParams.Name:
		return &LiquidParams, nil
	case TestnetParams.Name:
		return &TestnetParams, nil
	case RegtestParams.Name:
		return &RegtestParams, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
}
