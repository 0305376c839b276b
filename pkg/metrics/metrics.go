package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	IntentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowstate_intents_submitted_total",
		Help: "The total number of intents handed to the relayer",
	}, []string{"chain_id", "status"})

	IntentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowstate_intent_failures_total",
		Help: "Failed intents by pipeline stage and error type",
	}, []string{"chain_id", "stage", "reason"})

	Batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowstate_batches_total",
		Help: "Finished batches by outcome",
	}, []string{"chain_id", "outcome"})

	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowstate_batch_size",
		Help:    "Number of intents per batch",
		Buckets: prometheus.LinearBuckets(1, 1, 20),
	})

	SigningTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowstate_signing_seconds",
		Help:    "Time taken to obtain a signature, including human approval",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	RelayerRequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowstate_relayer_request_seconds",
		Help:    "Relayer request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	ChainReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowstate_chain_reads_total",
		Help: "Contract reads by call and status",
	}, []string{"call", "status"})

	CircuitBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flowstate_circuit_breaker_open",
		Help: "1 when the relayer circuit breaker is tripped",
	})

	TokenBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowstate_token_balance",
		Help: "Balance of the connected account per token, in whole tokens",
	}, []string{"chain_id", "symbol"})

	// NextNonce tracks the last nonce reserved per nonce source
	NextNonce = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowstate_next_nonce",
		Help: "The next base nonce handed out by the nonce source",
	}, []string{"source"})
)
