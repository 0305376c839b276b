package chainclient

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultSymbolTTL is how long a token symbol read from chain is reused
const DefaultSymbolTTL = 30 * time.Minute

// symbolCache keeps ERC20 symbols so a stream scan reads each token once
type symbolCache struct {
	mu      sync.RWMutex
	entries map[common.Address]symbolEntry
	ttl     time.Duration
	now     func() time.Time
}

type symbolEntry struct {
	symbol  string
	fetched time.Time
}

func newSymbolCache(ttl time.Duration) *symbolCache {
	return &symbolCache{
		entries: make(map[common.Address]symbolEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns the cached symbol of token if it has not expired
func (c *symbolCache) get(token common.Address) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[token]
	if !ok || c.now().Sub(e.fetched) > c.ttl {
		return "", false
	}
	return e.symbol, true
}

func (c *symbolCache) set(token common.Address, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = symbolEntry{symbol: symbol, fetched: c.now()}
}

// len counts entries, expired ones included
func (c *symbolCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
