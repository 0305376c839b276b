package chains

// Chain IDs
const (
	EthereumMainnet = 1
	Sepolia         = 11155111
	Base            = 8453
	BaseSepolia     = 84532
	Arbitrum        = 42161
	Unichain        = 130
)

// ChainList contains the chains with a FlowState hook deployment
var ChainList = []int{
	Sepolia,
}

// chainNames maps chain IDs to their names
var chainNames = map[int]string{
	EthereumMainnet: "ETHEREUM",
	Sepolia:         "SEPOLIA",
	Base:            "BASE",
	BaseSepolia:     "BASE_SEPOLIA",
	Arbitrum:        "ARBITRUM",
	Unichain:        "UNICHAIN",
}

// explorers maps chain IDs to block explorer base URLs
var explorers = map[int]string{
	EthereumMainnet: "https://etherscan.io",
	Sepolia:         "https://sepolia.etherscan.io",
	Base:            "https://basescan.org",
	BaseSepolia:     "https://sepolia.basescan.org",
	Arbitrum:        "https://arbiscan.io",
	Unichain:        "https://uniscan.xyz",
}

// GetChainName returns the name of the chain for a given chain ID
func GetChainName(chainID int) string {
	name, exists := chainNames[chainID]
	if !exists {
		return ""
	}
	return name
}

// IsSupported reports whether FlowState is deployed on the chain
func IsSupported(chainID int) bool {
	for _, id := range ChainList {
		if id == chainID {
			return true
		}
	}
	return false
}

// TxURL links a transaction on the chain's explorer, or returns "" for unknown chains
func TxURL(chainID int, txHash string) string {
	base, ok := explorers[chainID]
	if !ok {
		return ""
	}
	return base + "/tx/" + txHash
}
