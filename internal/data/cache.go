package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/domain"
)

const chainKeyPrefix = "optionrun:chain:"

// CachedChainProvider puts a short-TTL Redis cache in front of chain
// fetches. Cache failures degrade to direct fetches; a flaky cache must
// never take down analysis.
type CachedChainProvider struct {
	inner  ChainProvider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedChainProvider wraps inner with a Redis snapshot cache.
func NewCachedChainProvider(inner ChainProvider, client *redis.Client, ttl time.Duration) *CachedChainProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedChainProvider{inner: inner, client: client, ttl: ttl}
}

func chainKey(symbol string, strikeCount int) string {
	return fmt.Sprintf("%s%s:%d", chainKeyPrefix, symbol, strikeCount)
}

// OptionChain serves from cache when fresh, otherwise fetches and
// stores.
func (c *CachedChainProvider) OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error) {
	key := chainKey(symbol, strikeCount)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var snap domain.OptionChainSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable cached chain")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("chain cache read failed")
	}

	snap, err := c.inner.OptionChain(ctx, symbol, strikeCount)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(snap); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("chain cache write failed")
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for one symbol across strike
// counts.
func (c *CachedChainProvider) Invalidate(ctx context.Context, symbol string) error {
	iter := c.client.Scan(ctx, 0, chainKeyPrefix+symbol+":*", 50).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache invalidation failed for %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}
