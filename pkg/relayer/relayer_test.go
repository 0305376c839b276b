package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-hq/flowstate-intents/pkg/circuitbreaker"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

var testUser = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func testSigned() models.SignedIntent {
	sig := make([]byte, 65)
	sig[0] = 0xab
	sig[64] = 27
	return models.SignedIntent{
		Intent: models.Intent{
			User:     testUser,
			StreamID: big.NewInt(12),
			Amount:   big.NewInt(0),
			MinBlock: 1000,
			MaxBlock: 1150,
			Nonce:    9000,
			IsSwap:   true,
			TargetPool: models.PoolKey{
				Currency1:   common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"),
				Fee:         3000,
				TickSpacing: -60,
				Hooks:       common.HexToAddress("0xb5f4c4286c77695577f0aB434487d58969BF8880"),
			},
		},
		Signature: sig,
	}
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(testSigned())
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, testUser.Hex(), decoded["user"])
	assert.Equal(t, "12", decoded["streamId"])
	assert.Equal(t, "0", decoded["amount"])
	assert.Equal(t, "1000", decoded["minBlock"])
	assert.Equal(t, "1150", decoded["maxBlock"])
	assert.Equal(t, "9000", decoded["nonce"])
	assert.Equal(t, true, decoded["isSwap"])
	assert.Len(t, decoded["signature"], 2+130)
	assert.Equal(t, "0xab", decoded["signature"].(string)[:4])

	pool := decoded["targetPool"].(map[string]interface{})
	assert.Equal(t, float64(3000), pool["fee"])
	assert.Equal(t, float64(-60), pool["tickSpacing"])
	assert.Equal(t, "0x0000000000000000000000000000000000000000", pool["currency0"])
}

func TestSubmit(t *testing.T) {
	t.Run("accepts any 2xx", func(t *testing.T) {
		for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
			var got Payload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/intents", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.NoError(t, json.Unmarshal(body, &got))
				w.WriteHeader(status)
			}))

			c := New(srv.URL+"/", nil)
			err := c.Submit(context.Background(), NewPayload(testSigned()))
			assert.NoError(t, err, "status %d", status)
			assert.Equal(t, "9000", got.Nonce)
			srv.Close()
		}
	})

	t.Run("non-2xx is a rejection carrying the body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nonce already used", http.StatusConflict)
		}))
		defer srv.Close()

		err := New(srv.URL, nil).Submit(context.Background(), NewPayload(testSigned()))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrRelayerRejected))
		assert.Contains(t, err.Error(), "409")
		assert.Contains(t, err.Error(), "nonce already used")
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		err := New(url, nil).Submit(context.Background(), NewPayload(testSigned()))
		require.Error(t, err)
		assert.False(t, errors.Is(err, models.ErrRelayerRejected))
	})

	t.Run("open circuit fails fast", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		cb := circuitbreaker.NewCircuitBreaker("relayer", true, 2, time.Minute, time.Minute, nil)
		c := New(srv.URL, nil, WithCircuitBreaker(cb))

		for i := 0; i < 2; i++ {
			err := c.Submit(context.Background(), NewPayload(testSigned()))
			assert.True(t, errors.Is(err, models.ErrRelayerRejected))
		}
		assert.True(t, cb.IsOpen())

		err := c.Submit(context.Background(), NewPayload(testSigned()))
		assert.True(t, errors.Is(err, models.ErrCircuitOpen))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		cb := circuitbreaker.NewCircuitBreaker("relayer", true, 1, time.Minute, time.Minute, nil)
		c := New(srv.URL, nil, WithCircuitBreaker(cb))
		for i := 0; i < 3; i++ {
			_ = c.Submit(context.Background(), NewPayload(testSigned()))
		}
		assert.False(t, cb.IsOpen())
	})

	t.Run("rate limited request honours cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		c := New(srv.URL, nil, WithRateLimit(0.001, 1))
		require.NoError(t, c.Submit(context.Background(), NewPayload(testSigned())))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.Error(t, c.Submit(ctx, NewPayload(testSigned())))
	})
}

func TestLastNonce(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantNonce uint64
		wantFound bool
		wantErr   bool
	}{
		{name: "known user", status: http.StatusOK, body: `{"nonce":"41"}`, wantNonce: 41, wantFound: true},
		{name: "unknown user", status: http.StatusNotFound, body: `{"error":"not found"}`},
		{name: "empty nonce", status: http.StatusOK, body: `{}`},
		{name: "malformed nonce", status: http.StatusOK, body: `{"nonce":"0x29"}`, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/users/"+testUser.Hex()+"/nonce", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			nonce, found, err := New(srv.URL, nil).LastNonce(context.Background(), testUser)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNonce, nonce)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL, nil).Ping(context.Background()))
}
