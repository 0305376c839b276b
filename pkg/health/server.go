package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/circuitbreaker"
	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
)

// ChainStatus is the chain access the status endpoints need
type ChainStatus interface {
	BlockNumber(ctx context.Context) (uint64, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// RelayerStatus is the relayer access the status endpoints need
type RelayerStatus interface {
	Endpoint() string
	Ping(ctx context.Context) error
}

// Dependencies are the components the server reports on. Nil members are
// reported as not configured.
type Dependencies struct {
	ChainID int
	Chain   ChainStatus
	Relayer RelayerStatus
	Breaker *circuitbreaker.CircuitBreaker
	// Account is the connected wallet; zero skips balances
	Account common.Address
}

// Server represents a health check HTTP server
type Server struct {
	port          string
	deps          Dependencies
	metricsAPIKey string
	logger        logger.Logger
}

// NewServer creates a new health check server
func NewServer(port, metricsAPIKey string, deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Server{
		port:          port,
		deps:          deps,
		metricsAPIKey: metricsAPIKey,
		logger:        log,
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Get API key from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		// Check if the header has the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/circuit/reset", s.handleCircuitReset)

	// Expose Prometheus metrics with API key authentication
	mux.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Starting health and metrics server on port %s", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server error: %w", err)
	}
	return nil
}

// Readiness check: the RPC answers and the relayer is reachable
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chain == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Chain client not connected"))
		return
	}
	if _, err := s.deps.Chain.BlockNumber(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(fmt.Sprintf("Chain %d RPC unavailable: %v", s.deps.ChainID, err)))
		return
	}
	if s.deps.Relayer != nil {
		if err := s.deps.Relayer.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("Relayer unavailable: %v", err)))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"chain_id":   s.deps.ChainID,
		"chain_name": chains.GetChainName(s.deps.ChainID),
		"connected":  s.deps.Chain != nil,
	}

	if s.deps.Chain != nil {
		if blockNumber, err := s.deps.Chain.BlockNumber(r.Context()); err == nil {
			status["latest_block"] = blockNumber
		}
	}

	if s.deps.Relayer != nil {
		relayerStatus := map[string]interface{}{
			"endpoint":  s.deps.Relayer.Endpoint(),
			"reachable": s.deps.Relayer.Ping(r.Context()) == nil,
		}
		status["relayer"] = relayerStatus
	}

	if s.deps.Breaker != nil {
		status["circuit"] = s.deps.Breaker.GetState()
	}

	if s.deps.Chain != nil && s.deps.Account != (common.Address{}) {
		status["account"] = s.deps.Account.Hex()
		if balances := s.tokenBalances(r.Context()); len(balances) > 0 {
			status["token_balances"] = balances
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Error encoding status JSON: %v", err)
	}
}

// tokenBalances reads the account's balance of every known token. Failing
// tokens are left out.
func (s *Server) tokenBalances(ctx context.Context) map[string]string {
	balances := make(map[string]string)
	for _, symbol := range []string{"ETH", "USDC", "WBTC", "WETH", "DAI", "USDT"} {
		token, ok := chains.GetTokenBySymbol(s.deps.ChainID, symbol)
		if !ok {
			continue
		}
		balance, err := s.deps.Chain.TokenBalance(ctx, token.Address, s.deps.Account)
		if err != nil {
			s.logger.DebugWithChain(s.deps.ChainID, "Failed to read %s balance: %v", symbol, err)
			continue
		}
		whole, err := chains.GetStandardizedAmount(balance, s.deps.ChainID, token.Address)
		if err != nil {
			continue
		}
		balances[symbol] = whole.String()
	}
	return balances
}

// Circuit breaker admin control endpoint
func (s *Server) handleCircuitReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if s.deps.Breaker == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("No circuit breaker configured"))
		return
	}

	s.deps.Breaker.Reset()
	s.logger.Notice("Relayer circuit breaker reset via admin endpoint")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Circuit breaker reset"))
}
