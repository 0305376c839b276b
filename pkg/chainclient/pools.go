package chainclient

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/flowstate-hq/flowstate-intents/pkg/contracts"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
)

// PoolState reads slot0 and liquidity of a pool at the latest block
func (c *Client) PoolState(ctx context.Context, key models.PoolKey) (*models.PoolState, error) {
	return c.poolStateAt(ctx, 0, key)
}

func (c *Client) poolStateAt(ctx context.Context, block uint64, key models.PoolKey) (*models.PoolState, error) {
	if err := poolkey.Validate(key); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSchedule, err)
	}
	id := poolkey.Hash(key)

	var (
		slot0     contracts.Slot0
		liquidity *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	opts := callOpts(gctx, block)
	g.Go(func() error {
		var err error
		slot0, err = c.stateView.GetSlot0(opts, id)
		observe("getSlot0", err)
		if err != nil {
			return fmt.Errorf("getSlot0(%s): %w", id.Hex(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		liquidity, err = c.stateView.GetLiquidity(opts, id)
		observe("getLiquidity", err)
		if err != nil {
			return fmt.Errorf("getLiquidity(%s): %w", id.Hex(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStateUnavailable, err)
	}

	return &models.PoolState{
		ID:           id,
		Key:          key,
		SqrtPriceX96: slot0.SqrtPriceX96,
		Tick:         int32(slot0.Tick.Int64()),
		ProtocolFee:  uint32(slot0.ProtocolFee.Uint64()),
		LPFee:        uint32(slot0.LpFee.Uint64()),
		Liquidity:    liquidity,
	}, nil
}
