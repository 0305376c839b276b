package chainclient

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// Snapshot reads the current block, then the stream and pool at that block
// concurrently. Any failed read fails the whole snapshot.
func (c *Client) Snapshot(ctx context.Context, streamID *big.Int, key models.PoolKey) (*models.Snapshot, error) {
	block, err := c.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStateUnavailable, err)
	}

	snap := &models.Snapshot{CurrentBlock: block}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stream, err := c.streamAt(gctx, block, streamID)
		if err != nil {
			return err
		}
		snap.Stream = stream
		return nil
	})
	g.Go(func() error {
		pool, err := c.poolStateAt(gctx, block, key)
		if err != nil {
			return err
		}
		snap.Pool = pool
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.DebugWithChain(c.ChainIDInt(), "Snapshot at block %d: stream %s withdrawable %s, pool %s active=%t",
		block, streamID, snap.Stream.FormattedWithdrawable(), snap.Pool.ID.Hex(), snap.Pool.Active())
	return snap, nil
}
