package config

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

const (
	// DefaultPoolFee is the fee tier of the curated pools (0.30%)
	DefaultPoolFee = 3000
	// DefaultTickSpacing matches DefaultPoolFee
	DefaultTickSpacing = 60

	RiskUnknown = "Unknown"
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
)

// Pool is a curated FlowState pool
type Pool struct {
	ID           string
	Pair         string
	Token0Symbol string
	Token1Symbol string
	ChainID      int
	Key          models.PoolKey
}

type curatedPool struct {
	id, token0, token1, pair string
}

// curatedPools maps chain IDs to the hook pools the dashboard offers.
// Currencies are listed in sorted order.
var curatedPools = map[int][]curatedPool{
	chains.Sepolia: {
		{id: "pool-eth-usdc", token0: "ETH", token1: "USDC", pair: "ETH/USDC"},
		{id: "pool-eth-wbtc", token0: "ETH", token1: "WBTC", pair: "ETH/WBTC"},
		{id: "pool-wbtc-usdc", token0: "USDC", token1: "WBTC", pair: "WBTC/USDC"},
	},
}

// CuratedPools returns the curated pools of a chain bound to the given hook
func CuratedPools(chainID int, hook common.Address) []Pool {
	var pools []Pool
	for _, p := range curatedPools[chainID] {
		t0, ok0 := chains.GetTokenBySymbol(chainID, p.token0)
		t1, ok1 := chains.GetTokenBySymbol(chainID, p.token1)
		if !ok0 || !ok1 {
			continue
		}
		pools = append(pools, Pool{
			ID:           p.id,
			Pair:         p.pair,
			Token0Symbol: t0.Symbol,
			Token1Symbol: t1.Symbol,
			ChainID:      chainID,
			Key: models.PoolKey{
				Currency0:   t0.Address,
				Currency1:   t1.Address,
				Fee:         DefaultPoolFee,
				TickSpacing: DefaultTickSpacing,
				Hooks:       hook,
			},
		})
	}
	return pools
}

// FindPool looks a pool up by id ("pool-eth-usdc") or pair ("ETH/USDC",
// either order), case-insensitively
func FindPool(pools []Pool, query string) (Pool, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range pools {
		if strings.ToLower(p.ID) == q || strings.ToLower(p.Pair) == q {
			return p, true
		}
		if halves := strings.Split(q, "/"); len(halves) == 2 {
			a, b := strings.ToUpper(halves[0]), strings.ToUpper(halves[1])
			if (a == p.Token0Symbol && b == p.Token1Symbol) || (a == p.Token1Symbol && b == p.Token0Symbol) {
				return p, true
			}
		}
	}
	return Pool{}, false
}

// FormatFeeTier renders a fee in hundredths of a bip as a percentage, 3000 -> "0.30%"
func FormatFeeTier(fee uint32) string {
	return decimal.New(int64(fee), -4).StringFixed(2) + "%"
}

// PoolRisk labels a pool by the volatility of its pair
func PoolRisk(pool Pool, state *models.PoolState) string {
	if state == nil || !state.Active() {
		return RiskUnknown
	}
	if strings.Contains(pool.Pair, "USDC") && strings.Contains(pool.Pair, "DAI") {
		return RiskLow
	}
	if strings.Contains(pool.Pair, "ETH") {
		return RiskMedium
	}
	return RiskHigh
}

var (
	minPlainPrice = big.NewRat(1, 1_000_000)
	maxPlainPrice = new(big.Rat).SetInt64(1_000_000_000_000)
)

// FormatPoolPrice renders currency1 per currency0. Extreme prices use
// scientific notation, large ones drop decimals.
func FormatPoolPrice(chainID int, state *models.PoolState) string {
	if state == nil || !state.Active() {
		return "N/A"
	}
	if !state.HasLiquidity() {
		return "No liquidity"
	}

	d0 := chains.TokenDecimals(chainID, state.Key.Currency0)
	d1 := chains.TokenDecimals(chainID, state.Key.Currency1)
	exact := state.PriceRat(d0, d1)
	if exact.Cmp(minPlainPrice) < 0 || exact.Cmp(maxPlainPrice) > 0 {
		return exponential(exact)
	}

	price := state.Price(d0, d1)
	if price.GreaterThan(decimal.NewFromInt(1000)) {
		return groupThousands(price.Round(0).String())
	}
	return groupThousands(price.Round(4).String())
}

// FormatPoolTVL is the rough liquidity figure the dashboard shows
func FormatPoolTVL(state *models.PoolState) string {
	if state == nil || !state.Active() || !state.HasLiquidity() {
		return "Not initialized"
	}
	return "~$" + groupThousands(decimal.NewFromBigInt(state.Liquidity, -12).Round(0).String())
}

// exponential formats r as 1.23e-7 / 1.23e+12
func exponential(r *big.Rat) string {
	s := new(big.Float).SetPrec(256).SetRat(r).Text('e', 2)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok || len(exp) < 2 {
		return s
	}
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + exp[:1] + digits
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
