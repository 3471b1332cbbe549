package audit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTrailTest(t *testing.T) (*Trail, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTrail(rdb, "alg", 7*24*time.Hour), func() {
		rdb.Close()
		mr.Close()
	}
}

func trailEvent(accountID, eventType, status string, at time.Time) Event {
	return Event{
		ID:        accountID + at.String(),
		Timestamp: at,
		EventType: eventType,
		Status:    status,
		AccountID: accountID,
	}
}

func TestTrailCountSince(t *testing.T) {
	trail, done := newTrailTest(t)
	defer done()
	ctx := context.Background()
	now := time.Now()

	for _, offset := range []time.Duration{-3 * time.Hour, -2 * time.Hour, -30 * time.Minute} {
		event := trailEvent("acct-1", EventSignIn, StatusInvalidPassword, now.Add(offset))
		if err := trail.Append(ctx, event); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count, err := trail.CountSince(ctx, "acct-1", EventSignIn, StatusInvalidPassword, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	count, err = trail.CountSince(ctx, "acct-1", EventSignIn, StatusInvalidPassword, now.Add(-4*time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestTrailKeysSeparateStatuses(t *testing.T) {
	trail, done := newTrailTest(t)
	defer done()
	ctx := context.Background()
	now := time.Now()

	if err := trail.Append(ctx, trailEvent("acct-1", EventSignIn, StatusInvalidPassword, now)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := trail.Append(ctx, trailEvent("acct-1", EventSignIn, StatusOK, now)); err != nil {
		t.Fatalf("append: %v", err)
	}

	count, err := trail.CountSince(ctx, "acct-1", EventSignIn, StatusInvalidPassword, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("failure count = %d, want 1 (OK entry must not leak in)", count)
	}
}

func TestTrailLastAt(t *testing.T) {
	trail, done := newTrailTest(t)
	defer done()
	ctx := context.Background()
	now := time.Now()

	_, found, err := trail.LastAt(ctx, "acct-1", EventSignIn, StatusOK)
	if err != nil {
		t.Fatalf("lastat: %v", err)
	}
	if found {
		t.Fatal("found = true on empty trail")
	}

	earlier := now.Add(-time.Hour)
	if err := trail.Append(ctx, trailEvent("acct-1", EventSignIn, StatusOK, earlier)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := trail.Append(ctx, trailEvent("acct-1", EventSignIn, StatusOK, now)); err != nil {
		t.Fatalf("append: %v", err)
	}

	last, found, err := trail.LastAt(ctx, "acct-1", EventSignIn, StatusOK)
	if err != nil {
		t.Fatalf("lastat: %v", err)
	}
	if !found {
		t.Fatal("found = false after appends")
	}
	if last.UnixMilli() != now.UnixMilli() {
		t.Fatalf("last = %v, want %v", last, now)
	}
}

func TestTrailRecentNewestFirst(t *testing.T) {
	trail, done := newTrailTest(t)
	defer done()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		event := trailEvent("acct-1", EventSignOut, StatusOK, now.Add(time.Duration(i)*time.Minute))
		if err := trail.Append(ctx, event); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := trail.Recent(ctx, "acct-1", EventSignOut, StatusOK, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if !events[0].Timestamp.After(events[2].Timestamp) {
		t.Fatalf("entries not newest first: %v then %v", events[0].Timestamp, events[2].Timestamp)
	}
}
