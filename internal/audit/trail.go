package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTrailUnavailable indicates the trail backend is unreachable.
var ErrTrailUnavailable = errors.New("audit trail unavailable")

const defaultRetention = 7 * 24 * time.Hour

// Trail is the queryable half of the audit log: a Redis sorted set per
// (account, event type, status) scored by event time. The lockout
// computation counts entries here, so appends are synchronous — an entry is
// durable before the operation that caused it returns.
type Trail struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewTrail creates a [Trail]. retention bounds how long entries stay
// queryable; it must exceed the largest lockout window in use.
func NewTrail(redisClient redis.UniversalClient, prefix string, retention time.Duration) *Trail {
	if prefix == "" {
		prefix = "alg"
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Trail{redis: redisClient, prefix: prefix, retention: retention}
}

func (t *Trail) key(accountID, eventType, status string) string {
	if accountID == "" {
		accountID = "-"
	}
	return t.prefix + ":" + accountID + ":" + eventType + ":" + status
}

// Append persists one event. Entries older than the retention horizon are
// trimmed from the same sorted set in the same transaction.
func (t *Trail) Append(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := t.key(event.AccountID, event.EventType, event.Status)
	score := float64(event.Timestamp.UnixMilli())
	horizon := fmt.Sprintf("%d", event.Timestamp.Add(-t.retention).UnixMilli())

	_, err = t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: string(data)})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+horizon)
		pipe.Expire(ctx, key, t.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrailUnavailable, err)
	}
	return nil
}

// CountSince returns the number of (account, event type, status) entries
// with a timestamp at or after since.
func (t *Trail) CountSince(ctx context.Context, accountID, eventType, status string, since time.Time) (int, error) {
	min := fmt.Sprintf("%d", since.UnixMilli())
	count, err := t.redis.ZCount(ctx, t.key(accountID, eventType, status), min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTrailUnavailable, err)
	}
	return int(count), nil
}

// LastAt returns the timestamp of the most recent matching entry, or false
// when none exists within the retention horizon.
func (t *Trail) LastAt(ctx context.Context, accountID, eventType, status string) (time.Time, bool, error) {
	entries, err := t.redis.ZRevRangeWithScores(ctx, t.key(accountID, eventType, status), 0, 0).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrTrailUnavailable, err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(entries[0].Score)), true, nil
}

// Recent returns up to limit matching entries, newest first.
func (t *Trail) Recent(ctx context.Context, accountID, eventType, status string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}
	raw, err := t.redis.ZRevRange(ctx, t.key(accountID, eventType, status), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrailUnavailable, err)
	}

	events := make([]Event, 0, len(raw))
	for _, member := range raw {
		var event Event
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
