package schedule

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

func testRequest() models.ScheduleRequest {
	return models.ScheduleRequest{
		User:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		StreamID: big.NewInt(12),
		Pool: models.PoolKey{
			Currency1:   common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"),
			Fee:         3000,
			TickSpacing: 60,
			Hooks:       common.HexToAddress("0xb5f4c4286c77695577f0aB434487d58969BF8880"),
		},
		Strategy:  models.StrategyLP,
		BatchSize: 5,
		Interval:  50,
	}
}

func TestBuild(t *testing.T) {
	t.Run("windows and nonces", func(t *testing.T) {
		intents, err := Build(testRequest(), 1000, 9000)
		require.NoError(t, err)
		require.Len(t, intents, 5)

		expected := []struct{ min, max, nonce uint64 }{
			{1000, 1150, 9000},
			{1050, 1200, 9001},
			{1100, 1250, 9002},
			{1150, 1300, 9003},
			{1200, 1350, 9004},
		}
		for i, want := range expected {
			got := intents[i]
			assert.Equal(t, want.min, got.MinBlock, "intent %d min", i)
			assert.Equal(t, want.max, got.MaxBlock, "intent %d max", i)
			assert.Equal(t, want.nonce, got.Nonce, "intent %d nonce", i)
			assert.Equal(t, 0, got.Amount.Sign())
			assert.False(t, got.IsSwap)
			assert.Equal(t, testRequest().Pool, got.TargetPool)
			assert.Equal(t, int64(12), got.StreamID.Int64())
		}
	})

	t.Run("consecutive windows overlap by the safety margin", func(t *testing.T) {
		req := testRequest()
		req.BatchSize = MaxBatchSize
		intents, err := Build(req, 1, 1)
		require.NoError(t, err)
		for i := 1; i < len(intents); i++ {
			assert.Equal(t, intents[i-1].MinBlock+req.Interval, intents[i].MinBlock)
			assert.Equal(t, uint64(SafetyMargin), intents[i-1].MaxBlock-intents[i].MinBlock)
			assert.Equal(t, intents[i-1].Nonce+1, intents[i].Nonce)
		}
	})

	t.Run("swap strategy", func(t *testing.T) {
		req := testRequest()
		req.Strategy = models.StrategySwap
		intents, err := Build(req, 10, 0)
		require.NoError(t, err)
		for _, in := range intents {
			assert.True(t, in.IsSwap)
		}
	})

	t.Run("explicit amount is copied", func(t *testing.T) {
		req := testRequest()
		req.Amount = big.NewInt(500)
		intents, err := Build(req, 10, 0)
		require.NoError(t, err)
		intents[0].Amount.SetInt64(1)
		assert.Equal(t, int64(500), intents[1].Amount.Int64())
		assert.Equal(t, int64(500), req.Amount.Int64())
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := Build(testRequest(), 1000, 9000)
		require.NoError(t, err)
		b, err := Build(testRequest(), 1000, 9000)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("single intent", func(t *testing.T) {
		req := testRequest()
		req.BatchSize = 1
		req.Interval = 1
		intents, err := Build(req, 0, 0)
		require.NoError(t, err)
		require.Len(t, intents, 1)
		assert.Equal(t, uint64(0), intents[0].MinBlock)
		assert.Equal(t, uint64(101), intents[0].MaxBlock)
	})
}

func TestBuildRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ScheduleRequest)
		block  uint64
		nonce  uint64
	}{
		{name: "batch size zero", mutate: func(r *models.ScheduleRequest) { r.BatchSize = 0 }},
		{name: "batch size 21", mutate: func(r *models.ScheduleRequest) { r.BatchSize = 21 }},
		{name: "interval zero", mutate: func(r *models.ScheduleRequest) { r.Interval = 0 }},
		{name: "unknown strategy", mutate: func(r *models.ScheduleRequest) { r.Strategy = models.Strategy(7) }},
		{name: "missing user", mutate: func(r *models.ScheduleRequest) { r.User = common.Address{} }},
		{name: "missing stream", mutate: func(r *models.ScheduleRequest) { r.StreamID = nil }},
		{name: "negative amount", mutate: func(r *models.ScheduleRequest) { r.Amount = big.NewInt(-1) }},
		{name: "amount above uint256", mutate: func(r *models.ScheduleRequest) { r.Amount = new(big.Int).Lsh(big.NewInt(1), 256) }},
		{name: "stream id above uint256", mutate: func(r *models.ScheduleRequest) { r.StreamID = new(big.Int).Lsh(big.NewInt(1), 256) }},
		{name: "fee too wide", mutate: func(r *models.ScheduleRequest) { r.Pool.Fee = 1 << 24 }},
		{name: "block overflow", mutate: func(r *models.ScheduleRequest) {}, block: math.MaxUint64 - 150},
		{name: "nonce overflow", mutate: func(r *models.ScheduleRequest) {}, nonce: math.MaxUint64 - 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			intents, err := Build(req, tt.block, tt.nonce)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidSchedule))
			assert.Nil(t, intents)
		})
	}
}
