// Package schedule expands a user's batch choices into concrete intents.
package schedule

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
)

const (
	// SafetyMargin is added to every execution window past the next slot
	SafetyMargin = 100

	MinBatchSize = 1
	MaxBatchSize = 20

	// DefaultBatchSize and DefaultInterval are the values offered to users
	DefaultBatchSize = 5
	DefaultInterval  = 50
)

// Validate checks a request without touching the chain
func Validate(req models.ScheduleRequest) error {
	if req.BatchSize < MinBatchSize || req.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size %d outside [%d, %d]", models.ErrInvalidSchedule, req.BatchSize, MinBatchSize, MaxBatchSize)
	}
	if req.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1 block", models.ErrInvalidSchedule)
	}
	if !req.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %s", models.ErrInvalidSchedule, req.Strategy)
	}
	if req.User == (common.Address{}) {
		return fmt.Errorf("%w: user address is required", models.ErrInvalidSchedule)
	}
	if req.StreamID == nil || req.StreamID.Sign() <= 0 {
		return fmt.Errorf("%w: stream id must be positive", models.ErrInvalidSchedule)
	}
	if req.StreamID.BitLen() > 256 {
		return fmt.Errorf("%w: stream id does not fit in uint256", models.ErrInvalidSchedule)
	}
	if req.Amount != nil && req.Amount.Sign() < 0 {
		return fmt.Errorf("%w: amount must not be negative", models.ErrInvalidSchedule)
	}
	if req.Amount != nil && req.Amount.BitLen() > 256 {
		return fmt.Errorf("%w: amount does not fit in uint256", models.ErrInvalidSchedule)
	}
	if err := poolkey.Validate(req.Pool); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidSchedule, err)
	}
	return nil
}

// Build returns batchSize intents in execution order. Intent i may run in
// [currentBlock + i*interval, that + interval + SafetyMargin] and carries
// nonce baseNonce + i. Equal inputs always yield equal intents.
func Build(req models.ScheduleRequest, currentBlock, baseNonce uint64) ([]models.Intent, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	n := uint64(req.BatchSize)
	lastMin, ok := mulAdd(n-1, req.Interval, currentBlock)
	if !ok {
		return nil, fmt.Errorf("%w: block window overflows", models.ErrInvalidSchedule)
	}
	span, ok := add(req.Interval, SafetyMargin)
	if ok {
		_, ok = add(lastMin, span)
	}
	if !ok {
		return nil, fmt.Errorf("%w: block window overflows", models.ErrInvalidSchedule)
	}
	if _, ok := add(baseNonce, n-1); !ok {
		return nil, fmt.Errorf("%w: nonce range overflows", models.ErrInvalidSchedule)
	}

	amount := new(big.Int)
	if req.Amount != nil {
		amount.Set(req.Amount)
	}
	intents := make([]models.Intent, 0, req.BatchSize)
	for i := uint64(0); i < n; i++ {
		minBlock := currentBlock + i*req.Interval
		intents = append(intents, models.Intent{
			User:       req.User,
			StreamID:   new(big.Int).Set(req.StreamID),
			Amount:     new(big.Int).Set(amount),
			MinBlock:   minBlock,
			MaxBlock:   minBlock + req.Interval + SafetyMargin,
			Nonce:      baseNonce + i,
			IsSwap:     req.Strategy == models.StrategySwap,
			TargetPool: req.Pool,
		})
	}
	return intents, nil
}

func add(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}

func mulAdd(a, b, c uint64) (uint64, bool) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, false
	}
	return add(a*b, c)
}
