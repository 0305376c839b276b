// Package relayer is the HTTP client for the intent relayer.
package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/flowstate-hq/flowstate-intents/pkg/circuitbreaker"
	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/metrics"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

const (
	intentsPath = "/api/v1/intents"
	noncePath   = "/api/v1/users/%s/nonce"
	healthPath  = "/health"

	// DefaultTimeout bounds a single relayer request
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4096
)

// Client represents a relayer API client
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     logger.Logger
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCircuitBreaker fails requests fast while cb is open
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithRateLimit caps outgoing requests per second; zero disables the limit
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a new relayer client
func New(endpoint string, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: createHTTPClient(),
		logger:     log,
		tracer:     otel.Tracer("github.com/flowstate-hq/flowstate-intents/pkg/relayer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL requests are sent to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Breaker returns the circuit breaker guarding the client, if any
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Submit posts one signed intent. Any 2xx response is acceptance.
func (c *Client) Submit(ctx context.Context, p Payload) error {
	ctx, span := c.tracer.Start(ctx, "relayer.Submit", trace.WithAttributes(
		attribute.String("intent.user", p.User),
		attribute.String("intent.nonce", p.Nonce),
		attribute.String("intent.stream_id", p.StreamID),
	))
	defer span.End()

	body, err := json.Marshal(p)
	if err != nil {
		return c.fail(span, fmt.Errorf("failed to encode intent: %v", err))
	}

	status, respBody, err := c.do(ctx, "intents", http.MethodPost, c.endpoint+intentsPath, body)
	if err != nil {
		return c.fail(span, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		return c.fail(span, fmt.Errorf("%w: status %d, body: %s", models.ErrRelayerRejected, status, respBody))
	}

	c.logger.Debug("Relayer accepted intent nonce %s for %s", p.Nonce, p.User)
	span.SetStatus(codes.Ok, "")
	return nil
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
}

// LastNonce returns the highest nonce the relayer has accepted for user.
// found is false when the relayer has no record of the user.
func (c *Client) LastNonce(ctx context.Context, user common.Address) (nonce uint64, found bool, err error) {
	ctx, span := c.tracer.Start(ctx, "relayer.LastNonce", trace.WithAttributes(
		attribute.String("intent.user", user.Hex()),
	))
	defer span.End()

	status, body, err := c.do(ctx, "nonce", http.MethodGet, c.endpoint+fmt.Sprintf(noncePath, user.Hex()), nil)
	if err != nil {
		return 0, false, c.fail(span, err)
	}
	if status == http.StatusNotFound {
		return 0, false, nil
	}
	if status != http.StatusOK {
		return 0, false, c.fail(span, fmt.Errorf("unexpected status code: %d, body: %s", status, body))
	}

	var resp nonceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, false, c.fail(span, fmt.Errorf("failed to decode nonce response: %v, body: %s", err, body))
	}
	if resp.Nonce == "" {
		return 0, false, nil
	}
	nonce, err = strconv.ParseUint(resp.Nonce, 10, 64)
	if err != nil {
		return 0, false, c.fail(span, fmt.Errorf("invalid nonce %q from relayer: %v", resp.Nonce, err))
	}
	return nonce, true, nil
}

// Ping checks that the relayer answers its health endpoint
func (c *Client) Ping(ctx context.Context) error {
	status, body, err := c.do(ctx, "health", http.MethodGet, c.endpoint+healthPath, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", status, body)
	}
	return nil
}

// do performs one request behind the breaker and the rate limiter. Transport
// errors and 5xx responses count against the breaker; 4xx does not.
func (c *Client) do(ctx context.Context, endpoint, method, url string, body []byte) (int, []byte, error) {
	if c.breaker != nil && c.breaker.IsOpen() {
		return 0, nil, models.ErrCircuitOpen
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RelayerRequestTime.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		if ctx.Err() == nil {
			c.recordFailure()
		}
		return 0, nil, fmt.Errorf("relayer request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	metrics.RelayerRequestTime.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.recordFailure()
		return 0, nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode >= 500 {
		c.recordFailure()
	} else if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	return resp.StatusCode, bytes.TrimSpace(respBody), nil
}

func (c *Client) recordFailure() {
	if c.breaker != nil && c.breaker.RecordFailure() {
		c.logger.Error("Relayer circuit breaker open, failing requests fast")
	}
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if !errors.Is(err, models.ErrCircuitOpen) {
		c.logger.Debug("Relayer request error: %v", err)
	}
	return err
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
