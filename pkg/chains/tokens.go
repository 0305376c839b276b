package chains

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the decimals of the native currency (address zero in v4 pool keys)
const NativeDecimals = 18

// TokenInfo is static metadata of a well-known token
type TokenInfo struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
}

// knownTokens lists tokens per chain. Address zero is the native currency.
var knownTokens = map[int][]TokenInfo{
	Sepolia: {
		{Symbol: "ETH", Name: "Ether", Address: common.Address{}, Decimals: NativeDecimals},
		{Symbol: "USDC", Name: "USD Coin", Address: common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"), Decimals: 6},
		{Symbol: "WBTC", Name: "Wrapped BTC", Address: common.HexToAddress("0x52eeA312378ef46140EBE67dE8a143BA2304FD7C"), Decimals: 8},
		{Symbol: "WETH", Name: "Wrapped ETH", Address: common.HexToAddress("0xfff9976782d46cc05630d1f6ebab18b2324d6b14"), Decimals: 18},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: common.HexToAddress("0x7169D38820dfd117C3FA1f22a697dBA58d90BA06"), Decimals: 18},
	},
	EthereumMainnet: {
		{Symbol: "ETH", Name: "Ether", Address: common.Address{}, Decimals: NativeDecimals},
		{Symbol: "USDC", Name: "USD Coin", Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18},
	},
}

// GetToken returns the known token at address on chainID
func GetToken(chainID int, address common.Address) (TokenInfo, bool) {
	for _, t := range knownTokens[chainID] {
		if t.Address == address {
			return t, true
		}
	}
	return TokenInfo{}, false
}

// GetTokenBySymbol looks a token up by symbol, case-insensitively
func GetTokenBySymbol(chainID int, symbol string) (TokenInfo, bool) {
	for _, t := range knownTokens[chainID] {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return TokenInfo{}, false
}

// TokenDecimals returns the decimals of a known token, defaulting to 18
func TokenDecimals(chainID int, address common.Address) uint8 {
	if t, ok := GetToken(chainID, address); ok {
		return t.Decimals
	}
	return 18
}

// GetStandardizedAmount converts a base-unit amount of a known token to whole tokens
func GetStandardizedAmount(amount *big.Int, chainID int, address common.Address) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, fmt.Errorf("amount is nil")
	}
	t, ok := GetToken(chainID, address)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown token %s on chain %d", address.Hex(), chainID)
	}
	return decimal.NewFromBigInt(amount, -int32(t.Decimals)), nil
}

// ParseAmount converts a human amount ("1.5") of a known token to base units.
// More fractional digits than the token has is an error.
func ParseAmount(value string, chainID int, address common.Address) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", value)
	}
	decimals := int32(TokenDecimals(chainID, address))
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}
	return scaled.BigInt(), nil
}
