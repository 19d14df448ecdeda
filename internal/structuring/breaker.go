package structuring

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	mpkg "github.com/local/attendplanner/internal/metrics"
)

// Breaker tracks provider cooldowns.
type Breaker interface {
	IsOpen(ctx context.Context, provider, model string) bool
	Open(ctx context.Context, provider, model string)
	Close(ctx context.Context, provider, model string)
}

type noBreaker struct{}

func (noBreaker) IsOpen(context.Context, string, string) bool { return false }
func (noBreaker) Open(context.Context, string, string)        {}
func (noBreaker) Close(context.Context, string, string)       {}

// RedisBreaker keeps breaker state in Redis hashes so every instance shares it.
type RedisBreaker struct {
	redis       *redis.Client
	baseBackoff time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
}

func NewRedisBreaker(rdb *redis.Client, baseBackoff, maxBackoff time.Duration) *RedisBreaker {
	return &RedisBreaker{redis: rdb, baseBackoff: baseBackoff, maxBackoff: maxBackoff, now: time.Now}
}

func breakerKey(provider, model string) string {
	return fmt.Sprintf("cb:structuring:%s:%s", provider, model)
}

// Open puts provider:model into cooldown. Each consecutive failure doubles the
// cooldown up to maxBackoff.
func (b *RedisBreaker) Open(ctx context.Context, provider, model string) {
	key := breakerKey(provider, model)

	failuresStr, _ := b.redis.HGet(ctx, key, "failures").Result()
	failures, _ := strconv.Atoi(failuresStr)
	failures++

	backoff := b.baseBackoff
	for i := 1; i < failures; i++ {
		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
			break
		}
	}

	now := b.now()
	retryAt := now.Add(backoff)
	if err := b.redis.HSet(ctx, key, map[string]interface{}{
		"state":     "open",
		"retry_at":  retryAt.Unix(),
		"failures":  failures,
		"opened_at": now.Unix(),
	}).Err(); err != nil {
		log.Error().Err(err).Str("provider", provider).Str("model", model).Msg("failed to persist breaker state")
		return
	}
	b.redis.Expire(ctx, key, 10*time.Minute)
	mpkg.BreakerOpened(provider, model)

	log.Warn().
		Str("provider", provider).
		Str("model", model).
		Dur("cooldown", backoff).
		Int("failures", failures).
		Time("retry_at", retryAt).
		Msg("circuit breaker opened")
}

// IsOpen reports whether the provider is cooling down. Once the cooldown has
// passed the breaker goes half-open and lets one probe request through.
func (b *RedisBreaker) IsOpen(ctx context.Context, provider, model string) bool {
	key := breakerKey(provider, model)

	vals, err := b.redis.HMGet(ctx, key, "state", "retry_at").Result()
	if err != nil || len(vals) != 2 {
		return false
	}
	state, _ := vals[0].(string)
	if state != "open" {
		return false
	}
	retryAtStr, _ := vals[1].(string)
	retryAt, _ := strconv.ParseInt(retryAtStr, 10, 64)

	if b.now().Unix() >= retryAt {
		b.redis.HSet(ctx, key, "state", "half_open")
		log.Info().Str("provider", provider).Str("model", model).Msg("circuit breaker half-open")
		return false
	}
	return true
}

// Close resets the breaker after a successful call.
func (b *RedisBreaker) Close(ctx context.Context, provider, model string) {
	key := breakerKey(provider, model)

	state, _ := b.redis.HGet(ctx, key, "state").Result()
	if state == "" || state == "closed" {
		return
	}
	b.redis.Del(ctx, key)
	mpkg.BreakerClosed(provider, model)
	log.Info().Str("provider", provider).Str("model", model).Msg("circuit breaker closed")
}
