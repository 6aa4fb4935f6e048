package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/samenkoop/winkel/internal/config"
)

const (
	keyAPIMember     = "api:member:%s"
	keySettlementRun = "settlement:run:%s:%s"
)

// RequestLimiter throttles API calls per member. A nil limiter (disabled or
// no redis configured) allows everything, and redis failures fail open so a
// cache outage never takes the storefront down with it.
type RequestLimiter struct {
	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewRequestLimiter(cfg config.Config) *RequestLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
	return &RequestLimiter{
		bucket: NewTokenBucket(client),
		locker: NewLocker(client),
		rate:   cfg.RateLimitRate,
		burst:  cfg.RateLimitBurst,
	}
}

// AllowMember reports whether the member may make another API call now.
func (l *RequestLimiter) AllowMember(ctx context.Context, memberID string) (*Result, error) {
	if l == nil {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAPIMember, memberID), l.rate, l.burst)
}

// LockSettlement serializes settlement mutations per group and period
// across API instances. The returned token releases the lock.
func (l *RequestLimiter) LockSettlement(ctx context.Context, groupID, periodID string) (string, bool, error) {
	if l == nil {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keySettlementRun, groupID, periodID), 30*time.Second)
}

// UnlockSettlement releases a settlement lock.
func (l *RequestLimiter) UnlockSettlement(ctx context.Context, groupID, periodID, token string) error {
	if l == nil {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keySettlementRun, groupID, periodID), token)
}
