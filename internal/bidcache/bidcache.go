// Package bidcache keeps the per-auction highest bid in Redis so concurrent
// bidders see the current best price without a database round trip. The cache
// is strictly an accelerator: every operation degrades to "no cached value"
// when Redis is slow or down, and the durable store stays authoritative.
package bidcache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const keyPrefix = "highest_bid:"

// setMax only moves the cached amount upward, so a late writer can never
// roll the visible highest bid back.
var setMax = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur or tonumber(ARGV[1]) > tonumber(cur) then
    redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

type Cache struct {
	rdc     *redis.Client
	timeout time.Duration
}

// New wraps the Redis client. timeout bounds every round trip; past it the
// caller proceeds on the durable value alone.
func New(rdc *redis.Client, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	return &Cache{rdc: rdc, timeout: timeout}
}

// Get returns the cached highest bid for the auction. ok is false when there
// is no cached value or Redis is unavailable; neither is an error for the
// caller.
func (c *Cache) Get(ctx context.Context, auctionID string) (decimal.Decimal, bool) {
	if c == nil || c.rdc == nil {
		return decimal.Zero, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.rdc.Get(ctx, keyPrefix+auctionID).Result()
	if err == redis.Nil {
		return decimal.Zero, false
	}
	if err != nil {
		zap.L().Warn("bidcache_get_degraded",
			zap.String("auction_id", auctionID), zap.Error(err))
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		zap.L().Warn("bidcache_bad_value",
			zap.String("auction_id", auctionID), zap.String("value", raw))
		return decimal.Zero, false
	}
	return amount, true
}

// Set records a newly committed highest bid. Failures are logged only; the
// durable commit already happened.
func (c *Cache) Set(ctx context.Context, auctionID string, amount decimal.Decimal) {
	if c == nil || c.rdc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := setMax.Run(ctx, c.rdc, []string{keyPrefix + auctionID}, amount.StringFixed(2)).Err(); err != nil {
		zap.L().Warn("bidcache_set_degraded",
			zap.String("auction_id", auctionID), zap.Error(err))
	}
}

// Drop removes the cached value once the auction is closed.
func (c *Cache) Drop(ctx context.Context, auctionID string) {
	if c == nil || c.rdc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rdc.Del(ctx, keyPrefix+auctionID).Err(); err != nil {
		zap.L().Warn("bidcache_drop_degraded",
			zap.String("auction_id", auctionID), zap.Error(err))
	}
}
