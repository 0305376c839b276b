package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Strategy selects what the executor does with withdrawn funds
type Strategy int

const (
	// StrategyLP adds the withdrawn funds as liquidity to the target pool
	StrategyLP Strategy = iota
	// StrategySwap swaps the withdrawn funds through the target pool
	StrategySwap
)

func (s Strategy) String() string {
	switch s {
	case StrategyLP:
		return "LP"
	case StrategySwap:
		return "SWAP"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Valid reports whether s is one of the known strategies
func (s Strategy) Valid() bool {
	return s == StrategyLP || s == StrategySwap
}

// ParseStrategy parses "lp" or "swap", case-insensitively
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LP":
		return StrategyLP, nil
	case "SWAP":
		return StrategySwap, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q, must be 'lp' or 'swap'", ErrInvalidSchedule, s)
}

// PoolKey identifies a Uniswap v4 pool
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         uint32 // uint24 on chain
	TickSpacing int32  // int24 on chain
	Hooks       common.Address
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s fee=%d tickSpacing=%d hooks=%s",
		k.Currency0.Hex(), k.Currency1.Hex(), k.Fee, k.TickSpacing, k.Hooks.Hex())
}

// Intent is a single authorization for the relayer to withdraw from a stream
// and route the funds into a pool within a block window
type Intent struct {
	User       common.Address
	StreamID   *big.Int
	Amount     *big.Int // zero means withdraw everything available
	MinBlock   uint64
	MaxBlock   uint64
	Nonce      uint64
	IsSwap     bool
	TargetPool PoolKey
}

// SignedIntent pairs an intent with its 65 byte r||s||v signature
type SignedIntent struct {
	Intent    Intent
	Signature []byte
}

// ScheduleRequest holds the user's choices for one batch
type ScheduleRequest struct {
	User      common.Address
	StreamID  *big.Int
	Pool      PoolKey
	Strategy  Strategy
	BatchSize int
	Interval  uint64
	Amount    *big.Int
}
