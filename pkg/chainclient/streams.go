package chainclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/contracts"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

const (
	// ScanBatchSize is the number of stream ids probed concurrently
	ScanBatchSize = 10
	// ScanEarlyStopDepth stops discovery once matches exist and this many ids were scanned
	ScanEarlyStopDepth = 50

	nativeSymbol   = "ETH"
	nativeDecimals = 18
	unknownSymbol  = "UNKNOWN"
)

// Stream reads a stream at the latest block
func (c *Client) Stream(ctx context.Context, streamID *big.Int) (*models.Stream, error) {
	return c.streamAt(ctx, 0, streamID)
}

// streamAt reads every field of a stream concurrently; block 0 means latest
func (c *Client) streamAt(ctx context.Context, block uint64, streamID *big.Int) (*models.Stream, error) {
	var (
		raw          contracts.FlowStream
		recipient    common.Address
		withdrawable *big.Int
		status       uint8
	)

	g, gctx := errgroup.WithContext(ctx)
	opts := callOpts(gctx, block)
	g.Go(func() error {
		var err error
		raw, err = c.flow.GetStream(opts, streamID)
		observe("getStream", err)
		if err != nil {
			return fmt.Errorf("getStream(%s): %w", streamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recipient, err = c.flow.GetRecipient(opts, streamID)
		observe("getRecipient", err)
		if err != nil {
			return fmt.Errorf("getRecipient(%s): %w", streamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		withdrawable, err = c.flow.WithdrawableAmountOf(opts, streamID)
		observe("withdrawableAmountOf", err)
		if err != nil {
			return fmt.Errorf("withdrawableAmountOf(%s): %w", streamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		status, err = c.flow.StatusOf(opts, streamID)
		observe("statusOf", err)
		if err != nil {
			return fmt.Errorf("statusOf(%s): %w", streamID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStateUnavailable, err)
	}

	if !raw.IsStream {
		return nil, fmt.Errorf("stream %s does not exist", streamID)
	}

	return &models.Stream{
		ID:             new(big.Int).Set(streamID),
		Sender:         raw.Sender,
		Recipient:      recipient,
		Token:          c.token(ctx, block, raw.Token, raw.TokenDecimals),
		Balance:        raw.Balance,
		RatePerSecond:  raw.RatePerSecond,
		Withdrawable:   withdrawable,
		Status:         models.StreamStatus(status),
		SnapshotTime:   raw.SnapshotTime.Uint64(),
		IsVoided:       raw.IsVoided,
		IsTransferable: raw.IsTransferable,
	}, nil
}

// token returns ERC20 metadata. The symbol is cosmetic, a failed read leaves it UNKNOWN.
func (c *Client) token(ctx context.Context, block uint64, address common.Address, decimals uint8) models.Token {
	if address == (common.Address{}) {
		return models.Token{Address: address, Symbol: nativeSymbol, Decimals: nativeDecimals}
	}
	if symbol, ok := c.symbols.get(address); ok {
		return models.Token{Address: address, Symbol: symbol, Decimals: decimals}
	}
	symbol, err := contracts.NewERC20(address, c.Backend).Symbol(callOpts(ctx, block))
	observe("symbol", err)
	if err == nil {
		c.symbols.set(address, symbol)
	} else {
		c.logger.DebugWithChain(c.ChainIDInt(), "Failed to read symbol of %s: %v", address.Hex(), err)
		symbol = unknownSymbol
		if known, ok := chains.GetToken(c.ChainIDInt(), address); ok {
			symbol = known.Symbol
		}
	}
	return models.Token{Address: address, Symbol: symbol, Decimals: decimals}
}

// FindStreams scans stream ids newest to oldest for streams paying recipient.
// Ids that fail to read are skipped.
func (c *Client) FindStreams(ctx context.Context, recipient common.Address) ([]*models.Stream, error) {
	next, err := c.flow.NextStreamID(callOpts(ctx, 0))
	observe("nextStreamId", err)
	if err != nil {
		return nil, fmt.Errorf("%w: nextStreamId: %v", models.ErrStateUnavailable, err)
	}
	if !next.IsInt64() {
		return nil, fmt.Errorf("nextStreamId out of range: %s", next)
	}
	total := next.Int64()
	c.logger.DebugWithChain(c.ChainIDInt(), "Scanning %d streams for %s", total-1, recipient.Hex())

	var found []*models.Stream
	for start := total - 1; start >= 1; start -= ScanBatchSize {
		end := start - ScanBatchSize + 1
		if end < 1 {
			end = 1
		}

		matches := make([]bool, start-end+1)
		g, gctx := errgroup.WithContext(ctx)
		for id := start; id >= end; id-- {
			g.Go(func() error {
				got, err := c.flow.GetRecipient(callOpts(gctx, 0), big.NewInt(id))
				observe("getRecipient", err)
				if err != nil {
					c.logger.DebugWithChain(c.ChainIDInt(), "Skipping stream %d: %v", id, err)
					return nil
				}
				matches[start-id] = got == recipient
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return found, err
		}

		for i, ok := range matches {
			if !ok {
				continue
			}
			id := start - int64(i)
			stream, err := c.Stream(ctx, big.NewInt(id))
			if err != nil {
				c.logger.DebugWithChain(c.ChainIDInt(), "Skipping stream %d: %v", id, err)
				continue
			}
			c.logger.InfoWithChain(c.ChainIDInt(), "Found stream %d", id)
			found = append(found, stream)
		}

		if len(found) > 0 && start < total-ScanEarlyStopDepth {
			break
		}
	}
	return found, nil
}
