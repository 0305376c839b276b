package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SecondsPerMonth is the 30 day month used for rate projections
const SecondsPerMonth = 2_592_000

// RateDecimals is the fixed point precision of Sablier Flow rates (UD21x18)
const RateDecimals = 18

// StreamStatus mirrors the Sablier Flow status enum
type StreamStatus uint8

const (
	StatusPending StreamStatus = iota
	StatusStreamingSolvent
	StatusStreamingInsolvent
	StatusPausedSolvent
	StatusPausedInsolvent
	StatusVoided
)

// Label returns the human readable status
func (s StreamStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusStreamingSolvent:
		return "Active"
	case StatusStreamingInsolvent:
		return "Insolvent"
	case StatusPausedSolvent:
		return "Paused"
	case StatusPausedInsolvent:
		return "Paused (Insolvent)"
	case StatusVoided:
		return "Voided"
	default:
		return "Unknown"
	}
}

// Token is ERC20 metadata
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// Stream is a Sablier Flow stream as read from chain
type Stream struct {
	ID             *big.Int
	Sender         common.Address
	Recipient      common.Address
	Token          Token
	Balance        *big.Int
	RatePerSecond  *big.Int
	Withdrawable   *big.Int
	Status         StreamStatus
	SnapshotTime   uint64
	IsVoided       bool
	IsTransferable bool
}

// FormatAmount renders a raw token amount with the given decimals
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// FormattedBalance returns the stream balance in token units
func (s *Stream) FormattedBalance() string {
	return FormatAmount(s.Balance, s.Token.Decimals)
}

// FormattedWithdrawable returns the withdrawable amount in token units
func (s *Stream) FormattedWithdrawable() string {
	return FormatAmount(s.Withdrawable, s.Token.Decimals)
}

// FormattedRate returns the per-second rate in token units
func (s *Stream) FormattedRate() string {
	return FormatAmount(s.RatePerSecond, RateDecimals)
}

// MonthlyRate projects the rate over a 30 day month
func (s *Stream) MonthlyRate() string {
	if s.RatePerSecond == nil {
		return "0"
	}
	monthly := new(big.Int).Mul(s.RatePerSecond, big.NewInt(SecondsPerMonth))
	return FormatAmount(monthly, RateDecimals)
}

// PoolState is the live state of a v4 pool read through StateView
type PoolState struct {
	ID           common.Hash
	Key          PoolKey
	SqrtPriceX96 *big.Int
	Tick         int32
	ProtocolFee  uint32
	LPFee        uint32
	Liquidity    *big.Int
}

// Active reports whether the pool has been initialized
func (p *PoolState) Active() bool {
	return p.SqrtPriceX96 != nil && p.SqrtPriceX96.Sign() > 0
}

// HasLiquidity reports whether in-range liquidity is non-zero
func (p *PoolState) HasLiquidity() bool {
	return p.Liquidity != nil && p.Liquidity.Sign() > 0
}

// Price returns currency1 per currency0 adjusted for decimals:
// (sqrtPriceX96^2 / 2^192) * 10^(decimals0-decimals1), rounded to 18 places
func (p *PoolState) Price(decimals0, decimals1 uint8) decimal.Decimal {
	r := p.PriceRat(decimals0, decimals1)
	return decimal.NewFromBigInt(r.Num(), 0).DivRound(decimal.NewFromBigInt(r.Denom(), 0), 18)
}

// PriceRat is Price without rounding. Zero for an uninitialized pool.
func (p *PoolState) PriceRat(decimals0, decimals1 uint8) *big.Rat {
	if !p.Active() {
		return new(big.Rat)
	}
	num := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	den := new(big.Int).Lsh(big.NewInt(1), 192)
	shift := int64(decimals0) - int64(decimals1)
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(abs(shift)), nil)
	if shift >= 0 {
		num.Mul(num, pow)
	} else {
		den.Mul(den, pow)
	}
	return new(big.Rat).SetFrac(num, den)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Snapshot is the chain state a schedule is built from. All reads
// completed before it was assembled.
type Snapshot struct {
	CurrentBlock uint64
	Stream       *Stream
	Pool         *PoolState
}
