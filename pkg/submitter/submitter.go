// Package submitter signs and posts a schedule of intents one at a time.
package submitter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/metrics"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/relayer"
	"github.com/flowstate-hq/flowstate-intents/pkg/signer"
)

// Transport delivers a signed intent to the relayer
type Transport interface {
	Submit(ctx context.Context, p relayer.Payload) error
}

// ItemHook observes every item as soon as its outcome is known
type ItemHook func(models.ItemResult)

// Submitter walks a schedule in order: sign item i, post item i, then item i+1.
// A failed item never stops the batch.
type Submitter struct {
	signer    signer.Signer
	transport Transport
	domain    signer.Domain
	logger    logger.Logger
	tracer    trace.Tracer
	hooks     []ItemHook
}

// Option configures a Submitter
type Option func(*Submitter)

// WithItemHook registers h to run after each item
func WithItemHook(h ItemHook) Option {
	return func(s *Submitter) { s.hooks = append(s.hooks, h) }
}

// New creates a submitter signing under domain
func New(sig signer.Signer, transport Transport, domain signer.Domain, log logger.Logger, opts ...Option) *Submitter {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	s := &Submitter{
		signer:    sig,
		transport: transport,
		domain:    domain,
		logger:    log,
		tracer:    otel.Tracer("github.com/flowstate-hq/flowstate-intents/pkg/submitter"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) chainID() int {
	if s.domain.ChainID == nil {
		return 0
	}
	return int(s.domain.ChainID.Int64())
}

// SubmitBatch processes intents strictly sequentially and reports how many
// the relayer accepted. Once ctx is cancelled the remaining items are
// recorded as cancelled without being signed.
func (s *Submitter) SubmitBatch(ctx context.Context, intents []models.Intent) models.BatchResult {
	ctx, span := s.tracer.Start(ctx, "submitter.SubmitBatch", trace.WithAttributes(
		attribute.Int("batch.size", len(intents)),
		attribute.String("signer", s.signer.Address().Hex()),
	))
	defer span.End()

	chainLabel := strconv.Itoa(s.chainID())
	result := models.BatchResult{
		Attempted: len(intents),
		Items:     make([]models.ItemResult, 0, len(intents)),
	}

	for i, intent := range intents {
		item := s.submitOne(ctx, i, intent)
		result.Items = append(result.Items, item)

		if item.OK() {
			result.Succeeded++
			metrics.IntentsSubmitted.WithLabelValues(chainLabel, "accepted").Inc()
			s.logger.InfoWithChain(s.chainID(), "Intent %d/%d accepted (nonce %d, blocks %d-%d)",
				i+1, len(intents), intent.Nonce, intent.MinBlock, intent.MaxBlock)
		} else {
			retryable, reason := classifyFailure(item.Err)
			metrics.IntentsSubmitted.WithLabelValues(chainLabel, "failed").Inc()
			metrics.IntentFailures.WithLabelValues(chainLabel, string(item.Stage), reason).Inc()
			s.logger.ErrorWithChain(s.chainID(), "Intent %d/%d failed at %s stage (nonce %d, %s, retryable=%t): %v",
				i+1, len(intents), item.Stage, intent.Nonce, reason, retryable, item.Err)
		}

		for _, h := range s.hooks {
			h(item)
		}
	}

	outcome := result.Outcome()
	metrics.Batches.WithLabelValues(chainLabel, outcome.String()).Inc()
	metrics.BatchSize.Observe(float64(len(intents)))
	span.SetAttributes(
		attribute.Int("batch.succeeded", result.Succeeded),
		attribute.String("batch.outcome", outcome.String()),
	)
	if !result.Success() {
		span.SetStatus(codes.Error, result.Summary())
	}

	if result.Success() {
		s.logger.NoticeWithChain(s.chainID(), "Batch complete: %s", result.Summary())
	} else {
		s.logger.ErrorWithChain(s.chainID(), "Batch incomplete: %s", result.Summary())
	}
	return result
}

func (s *Submitter) submitOne(ctx context.Context, index int, intent models.Intent) models.ItemResult {
	item := models.ItemResult{Index: index, Intent: intent}

	if err := ctx.Err(); err != nil {
		item.Stage = models.StageSign
		item.Err = fmt.Errorf("%w: %v", models.ErrCancelled, err)
		return item
	}

	start := time.Now()
	signed, err := signer.Sign(ctx, s.signer, intent, s.domain)
	metrics.SigningTime.Observe(time.Since(start).Seconds())
	if err != nil {
		item.Stage = models.StageSign
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", models.ErrCancelled, err)
		}
		item.Err = err
		return item
	}
	item.Signature = signed.Signature

	if err := s.transport.Submit(ctx, relayer.NewPayload(signed)); err != nil {
		item.Stage = models.StageSubmit
		item.Err = err
	}
	return item
}
