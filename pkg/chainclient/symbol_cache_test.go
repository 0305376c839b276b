package chainclient

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestSymbolCache(t *testing.T) {
	usdc := common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	dai := common.HexToAddress("0x7169D38820dfd117C3FA1f22a697dBA58d90BA06")

	t.Run("set and get", func(t *testing.T) {
		cache := newSymbolCache(time.Minute)
		cache.set(usdc, "USDC")

		symbol, ok := cache.get(usdc)
		assert.True(t, ok)
		assert.Equal(t, "USDC", symbol)

		_, ok = cache.get(dai)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		cache := newSymbolCache(time.Minute)
		cache.now = func() time.Time { return now }
		cache.set(usdc, "USDC")

		now = now.Add(59 * time.Second)
		_, ok := cache.get(usdc)
		assert.True(t, ok)

		now = now.Add(2 * time.Second)
		_, ok = cache.get(usdc)
		assert.False(t, ok)
		assert.Equal(t, 1, cache.len())
	})
}
