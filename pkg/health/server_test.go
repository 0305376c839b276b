package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/circuitbreaker"
)

type fakeChain struct {
	mu       sync.Mutex
	block    uint64
	err      error
	balances map[common.Address]*big.Int
}

func (f *fakeChain) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, f.err
}

func (f *fakeChain) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return nil, errors.New("execution reverted")
}

type fakeRelayer struct {
	mu  sync.Mutex
	err error
}

func (f *fakeRelayer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRelayer) Endpoint() string { return "http://relayer.test" }

func (f *fakeRelayer) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func newTestServer(apiKey string, deps Dependencies) *httptest.Server {
	return httptest.NewServer(NewServer("0", apiKey, deps, nil).Handler())
}

func get(t *testing.T, url string, header ...string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthAndReady(t *testing.T) {
	chain := &fakeChain{block: 123}
	relayer := &fakeRelayer{}
	srv := newTestServer("", Dependencies{ChainID: chains.Sepolia, Chain: chain, Relayer: relayer})
	defer srv.Close()

	code, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, srv.URL+"/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ready", body)

	relayer.setErr(errors.New("connection refused"))
	code, body = get(t, srv.URL+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "Relayer unavailable")

	relayer.setErr(nil)
	chain.setErr(errors.New("dial tcp: timeout"))
	code, body = get(t, srv.URL+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "RPC unavailable")
}

func TestReadyWithoutChain(t *testing.T) {
	srv := newTestServer("", Dependencies{})
	defer srv.Close()

	code, _ := get(t, srv.URL+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatus(t *testing.T) {
	usdc, _ := chains.GetTokenBySymbol(chains.Sepolia, "USDC")
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chain := &fakeChain{block: 4242, balances: map[common.Address]*big.Int{
		{}:           big.NewInt(500_000_000_000_000_000),
		usdc.Address: big.NewInt(12_500_000),
	}}
	breaker := circuitbreaker.NewCircuitBreaker("relayer", true, 5, time.Minute, time.Minute, nil)

	srv := newTestServer("", Dependencies{
		ChainID: chains.Sepolia,
		Chain:   chain,
		Relayer: &fakeRelayer{},
		Breaker: breaker,
		Account: account,
	})
	defer srv.Close()

	code, body := get(t, srv.URL+"/status")
	require.Equal(t, http.StatusOK, code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &status))

	assert.Equal(t, float64(chains.Sepolia), status["chain_id"])
	assert.Equal(t, "SEPOLIA", status["chain_name"])
	assert.Equal(t, float64(4242), status["latest_block"])
	assert.Equal(t, account.Hex(), status["account"])

	relayerStatus := status["relayer"].(map[string]interface{})
	assert.Equal(t, "http://relayer.test", relayerStatus["endpoint"])
	assert.Equal(t, true, relayerStatus["reachable"])

	circuit := status["circuit"].(map[string]interface{})
	assert.Equal(t, false, circuit["open"])
	assert.Equal(t, float64(5), circuit["fail_threshold"])

	balances := status["token_balances"].(map[string]interface{})
	assert.Equal(t, "0.5", balances["ETH"])
	assert.Equal(t, "12.5", balances["USDC"])
	assert.NotContains(t, balances, "WBTC", "failed reads are omitted")
}

func TestCircuitReset(t *testing.T) {
	breaker := circuitbreaker.NewCircuitBreaker("relayer", true, 1, time.Minute, time.Minute, nil)
	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	srv := newTestServer("", Dependencies{Breaker: breaker})
	defer srv.Close()

	code, _ := get(t, srv.URL+"/circuit/reset")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	resp, err := http.Post(srv.URL+"/circuit/reset", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, breaker.IsOpen())

	empty := newTestServer("", Dependencies{})
	defer empty.Close()
	resp, err = http.Post(empty.URL+"/circuit/reset", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsAuth(t *testing.T) {
	srv := newTestServer("secret", Dependencies{})
	defer srv.Close()

	code, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = get(t, srv.URL+"/metrics", "Authorization", "Token secret")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = get(t, srv.URL+"/metrics", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := get(t, srv.URL+"/metrics", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")

	open := newTestServer("", Dependencies{})
	defer open.Close()
	code, _ = get(t, open.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer("0", "", Dependencies{}, nil).Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
