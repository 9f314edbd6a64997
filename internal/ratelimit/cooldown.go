package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown grants at most one action per key within ttl.
type Cooldown interface {
	// Acquire reports whether the caller may act now. When it returns true the key
	// is held for ttl; when false, retryIn is how long the key stays held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (ok bool, retryIn time.Duration, err error)
}

type RedisCooldown struct {
	Redis  *redis.Client
	Prefix string
}

func NewRedisCooldown(rdb *redis.Client) *RedisCooldown {
	return &RedisCooldown{Redis: rdb, Prefix: "cooldown:"}
}

func (r *RedisCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	k := r.Prefix + key
	ok, err := r.Redis.SetNX(ctx, k, "1", ttl).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	left, err := r.Redis.TTL(ctx, k).Result()
	if err != nil || left < 0 {
		return false, ttl, nil
	}
	return false, left, nil
}

// Noop never throttles. Used when Redis is not configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (bool, time.Duration, error) {
	return true, 0, nil
}

// Local keeps cooldown keys in process memory. Used when Redis is not
// configured; keys are not shared between instances.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocal() *Local {
	return &Local{held: map[string]time.Time{}, now: time.Now}
}

func (l *Local) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	for k, until := range l.held {
		if !now.Before(until) {
			delete(l.held, k)
		}
	}
	l.held[key] = now.Add(ttl)
	return true, 0, nil
}

// Key builds the cooldown key for an OTP send.
func Key(userID, purpose string) string {
	return "otp:" + purpose + ":" + userID
}
