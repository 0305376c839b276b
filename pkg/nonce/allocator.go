package nonce

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/metrics"
)

// Allocator combines a Source with the process Ledger. A base below a range
// this process already handed out is moved past it.
type Allocator struct {
	source Source
	ledger *Ledger
	logger logger.Logger
}

func NewAllocator(source Source, ledger *Ledger, log logger.Logger) *Allocator {
	if ledger == nil {
		ledger = NewLedger()
	}
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	if source.Name() == SourceClock {
		log.Notice("Using clock-derived nonces; concurrent batches for the same account may collide")
	}
	return &Allocator{source: source, ledger: ledger, logger: log}
}

// Ledger returns the ledger tracking allocated nonces
func (a *Allocator) Ledger() *Ledger {
	return a.ledger
}

// Source returns the configured nonce source
func (a *Allocator) Source() Source {
	return a.source
}

// Allocate reserves n consecutive nonces for user and returns the first
func (a *Allocator) Allocate(ctx context.Context, user common.Address, n int) (uint64, error) {
	base, err := a.source.Reserve(ctx, user, n)
	if err != nil {
		return 0, fmt.Errorf("%s nonce source: %w", a.source.Name(), err)
	}

	if next := a.ledger.Next(user); base < next {
		a.logger.Debug("Nonce %d from %s source already used in this session, moving to %d", base, a.source.Name(), next)
		base = next
	}

	if err := a.ledger.Reserve(user, base, n); err != nil {
		return 0, err
	}
	metrics.NextNonce.WithLabelValues(a.source.Name()).Set(float64(base + uint64(n)))
	a.logger.Debug("Reserved nonces [%d, %d) for %s", base, base+uint64(n), user.Hex())
	return base, nil
}
