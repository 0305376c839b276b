package config

import "github.com/flowstate-hq/flowstate-intents/pkg/chains"

// NetworkDefaults holds the deployment a network name resolves to
type NetworkDefaults struct {
	ChainID     int
	RPCURL      string
	SablierFlow string
	StateView   string
	PoolManager string
	Hook        string
}

// networkDefaults maps network names to their defaults
var networkDefaults = map[string]NetworkDefaults{
	sepolia: {
		ChainID:     chains.Sepolia,
		RPCURL:      DefaultSepoliaRPCURL,
		SablierFlow: SepoliaSablierFlowAddress,
		StateView:   SepoliaStateViewAddress,
		PoolManager: SepoliaPoolManagerAddress,
		Hook:        SepoliaHookAddress,
	},
	mainnet: {
		ChainID: chains.EthereumMainnet,
		RPCURL:  DefaultEthereumMainnetRPCURL,
	},
}

// GetNetworkDefaults returns the defaults for a network name
func GetNetworkDefaults(network string) (NetworkDefaults, bool) {
	d, ok := networkDefaults[network]
	return d, ok
}

// GetNetworkName returns the network name for a chain ID, or "" if unknown
func GetNetworkName(chainID int) string {
	for name, d := range networkDefaults {
		if d.ChainID == chainID {
			return name
		}
	}
	return ""
}
