package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable indicates the limiter backend is unreachable.
var ErrLimiterUnavailable = errors.New("send limiter unavailable")

// SendLimit is a fixed-window cap on code issuance for one tuple.
// Max <= 0 disables the limit.
type SendLimit struct {
	Window time.Duration
	Max    int
}

// Enabled reports whether the limit is active.
func (l SendLimit) Enabled() bool {
	return l.Max > 0 && l.Window > 0
}

// SendLimiter enforces per-(subject, channel, purpose) issuance caps with
// Redis counters. INCR-then-compare makes the check-and-count atomic: of
// two concurrent calls racing the cap, at most one observes a count within
// budget.
type SendLimiter struct {
	redis  redis.UniversalClient
	prefix string
}

// NewSendLimiter creates a [SendLimiter].
func NewSendLimiter(redisClient redis.UniversalClient, prefix string) *SendLimiter {
	if prefix == "" {
		prefix = "asl"
	}
	return &SendLimiter{redis: redisClient, prefix: prefix}
}

func (l *SendLimiter) key(subject string, channel, purpose uint8) string {
	return fmt.Sprintf("%s:%s:%d:%d", l.prefix, subject, channel, purpose)
}

// Allow counts one issuance for the tuple and reports whether it is within
// the window budget. With the limit disabled every call is allowed and no
// counter is touched.
func (l *SendLimiter) Allow(ctx context.Context, subject string, channel, purpose uint8, limit SendLimit) (bool, error) {
	if !limit.Enabled() {
		return true, nil
	}

	key := l.key(subject, channel, purpose)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	// Fixed-window semantics: TTL is set only by the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, limit.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	return count <= int64(limit.Max), nil
}

// Reset clears the counter for a tuple.
func (l *SendLimiter) Reset(ctx context.Context, subject string, channel, purpose uint8) error {
	if err := l.redis.Del(ctx, l.key(subject, channel, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}
