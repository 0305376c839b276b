// Package nonce hands out base nonces for intent batches.
package nonce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const (
	SourceRelayer = "relayer"
	SourceRedis   = "redis"
	SourceClock   = "clock"
)

// Source returns the first nonce of a fresh range of n nonces for user
type Source interface {
	Name() string
	Reserve(ctx context.Context, user common.Address, n int) (uint64, error)
}

// NonceFetcher is the relayer capability RelayerSource needs
type NonceFetcher interface {
	LastNonce(ctx context.Context, user common.Address) (uint64, bool, error)
}

// RelayerSource continues after the last nonce the relayer accepted
type RelayerSource struct {
	relayer NonceFetcher
}

func NewRelayerSource(relayer NonceFetcher) *RelayerSource {
	return &RelayerSource{relayer: relayer}
}

func (s *RelayerSource) Name() string { return SourceRelayer }

func (s *RelayerSource) Reserve(ctx context.Context, user common.Address, n int) (uint64, error) {
	last, found, err := s.relayer.LastNonce(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("failed to query last nonce: %w", err)
	}
	if !found {
		return 0, nil
	}
	return last + 1, nil
}

// Incrementer is the subset of redis.Cmdable used by RedisSource
type Incrementer interface {
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
}

// RedisSource reserves ranges atomically with INCRBY, so several devices
// signing for the same account never share a nonce
type RedisSource struct {
	client  Incrementer
	chainID int64
}

func NewRedisSource(client Incrementer, chainID int64) *RedisSource {
	return &RedisSource{client: client, chainID: chainID}
}

func (s *RedisSource) Name() string { return SourceRedis }

// Key returns the counter key for user
func (s *RedisSource) Key(user common.Address) string {
	return fmt.Sprintf("flowstate:nonce:%d:%s", s.chainID, strings.ToLower(user.Hex()))
}

func (s *RedisSource) Reserve(ctx context.Context, user common.Address, n int) (uint64, error) {
	if n < 1 {
		return 0, fmt.Errorf("cannot reserve %d nonces", n)
	}
	key := s.Key(user)
	next, err := s.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis INCRBY %s: %w", key, err)
	}
	if next < int64(n) {
		return 0, fmt.Errorf("redis counter %s is corrupt: %d", key, next)
	}
	return uint64(next - int64(n)), nil
}

// ClockSource uses milliseconds since the epoch. Two batches started in the
// same millisecond, or on machines with skewed clocks, can collide.
type ClockSource struct {
	now func() time.Time
}

func NewClockSource() *ClockSource {
	return &ClockSource{now: time.Now}
}

func (s *ClockSource) Name() string { return SourceClock }

func (s *ClockSource) Reserve(_ context.Context, _ common.Address, _ int) (uint64, error) {
	return uint64(s.now().UnixMilli()), nil
}
