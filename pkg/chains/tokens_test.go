package chains

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	sepoliaUSDC = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	sepoliaWBTC = common.HexToAddress("0x52eeA312378ef46140EBE67dE8a143BA2304FD7C")
)

func TestGetStandardizedAmount(t *testing.T) {
	// Helper function for creating big.Int from string
	setString := func(s string) *big.Int {
		bigInt, ok := new(big.Int).SetString(s, 10)
		if !ok {
			t.Fatalf("Failed to set string %s to big.Int", s)
		}
		return bigInt
	}

	tests := []struct {
		name       string
		baseAmount *big.Int
		chainID    int
		token      common.Address
		expected   string
		isErr      bool
	}{
		{
			name:       "USDC_Sepolia_1_token",
			baseAmount: big.NewInt(1000000),
			chainID:    Sepolia,
			token:      sepoliaUSDC,
			expected:   "1",
		},
		{
			name:       "USDC_Sepolia_half_token",
			baseAmount: big.NewInt(500000),
			chainID:    Sepolia,
			token:      sepoliaUSDC,
			expected:   "0.5",
		},
		{
			name:       "WBTC_Sepolia_8_decimals",
			baseAmount: big.NewInt(12345678),
			chainID:    Sepolia,
			token:      sepoliaWBTC,
			expected:   "0.12345678",
		},
		{
			name:       "ETH_Sepolia_native",
			baseAmount: setString("2500000000000000000"),
			chainID:    Sepolia,
			token:      common.Address{},
			expected:   "2.5",
		},
		{
			name:       "USDC_Mainnet_large",
			baseAmount: setString("1000000000000"),
			chainID:    EthereumMainnet,
			token:      common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
			expected:   "1000000",
		},
		{
			name:       "unknown_token",
			baseAmount: big.NewInt(1),
			chainID:    Sepolia,
			token:      common.HexToAddress("0x0000000000000000000000000000000000000042"),
			isErr:      true,
		},
		{
			name:       "unknown_chain",
			baseAmount: big.NewInt(1),
			chainID:    56,
			token:      sepoliaUSDC,
			isErr:      true,
		},
		{
			name:    "nil_amount",
			chainID: Sepolia,
			token:   sepoliaUSDC,
			isErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := GetStandardizedAmount(tt.baseAmount, tt.chainID, tt.token)
			if tt.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, result.String())
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		token    common.Address
		expected string
		isErr    bool
	}{
		{name: "whole", value: "5", token: sepoliaUSDC, expected: "5000000"},
		{name: "fraction", value: "1.25", token: sepoliaUSDC, expected: "1250000"},
		{name: "native", value: "0.001", token: common.Address{}, expected: "1000000000000000"},
		{name: "zero", value: "0", token: sepoliaUSDC, expected: "0"},
		{name: "unknown token defaults to 18", value: "1", token: common.HexToAddress("0x42"), expected: "1000000000000000000"},
		{name: "too precise", value: "0.0000001", token: sepoliaUSDC, isErr: true},
		{name: "negative", value: "-1", token: sepoliaUSDC, isErr: true},
		{name: "garbage", value: "lots", token: sepoliaUSDC, isErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAmount(tt.value, Sepolia, tt.token)
			if tt.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, result.String())
		})
	}
}

func TestTokenLookup(t *testing.T) {
	usdc, ok := GetTokenBySymbol(Sepolia, "usdc")
	require.True(t, ok)
	require.Equal(t, sepoliaUSDC, usdc.Address)
	require.Equal(t, uint8(6), usdc.Decimals)

	wbtc, ok := GetToken(Sepolia, common.HexToAddress("0x52eea312378ef46140ebe67de8a143ba2304fd7c"))
	require.True(t, ok, "lookup is case-insensitive on the hex form")
	require.Equal(t, "WBTC", wbtc.Symbol)

	_, ok = GetTokenBySymbol(Sepolia, "DOGE")
	require.False(t, ok)
	require.Equal(t, uint8(18), TokenDecimals(Sepolia, common.HexToAddress("0x42")))
}

func TestChains(t *testing.T) {
	require.Equal(t, "SEPOLIA", GetChainName(Sepolia))
	require.Equal(t, "", GetChainName(999))
	require.True(t, IsSupported(Sepolia))
	require.False(t, IsSupported(EthereumMainnet))
	require.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", TxURL(Sepolia, "0xabc"))
	require.Equal(t, "", TxURL(999, "0xabc"))
}
