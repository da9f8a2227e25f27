package network

import "fmt"

// RPCConfig holds the connection parameters for a node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// Presets contains default RPC configurations for local development networks.
// Liquid mainnet is intentionally omitted to require explicit configuration.
var Presets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18884", User: "covenant", Password: "covenant"},
	"testnet": {URL: "http://localhost:7039", User: "covenant", Password: "covenant"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing
// priority:
//  1. explicit values (highest priority)
//  2. environment variables (COVENANT_RPC_URL, COVENANT_RPC_USER, COVENANT_RPC_PASS)
//  3. network presets (regtest/testnet only)
//
// Liquid mainnet has no preset, so it always requires explicit configuration.
func ResolveConfig(explicit *RPCConfig, env map[string]string, networkName string) (*RPCConfig, error) {
	result := RPCConfig{Network: networkName}

	if preset, ok := Presets[networkName]; ok {
		result = preset
		result.Network = networkName
	}

	if env != nil {
		if v, ok := env["COVENANT_RPC_URL"]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env["COVENANT_RPC_USER"]; ok && v != "" {
			result.User = v
		}
		if v, ok := env["COVENANT_RPC_PASS"]; ok && v != "" {
			result.Password = v
		}
	}

	if explicit != nil {
		if explicit.URL != "" {
			result.URL = explicit.URL
		}
		if explicit.User != "" {
			result.User = explicit.User
		}
		if explicit.Password != "" {
			result.Password = explicit.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set URL, COVENANT_RPC_URL, or a preset network)", networkName)
	}
	return &result, nil
}
