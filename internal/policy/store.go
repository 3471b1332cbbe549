package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrSettingsUnavailable indicates the settings backend is unreachable.
var ErrSettingsUnavailable = errors.New("policy settings unavailable")

// Settings is the key-value persistence contract for policy values. The
// admin layer that owns settings CRUD satisfies it; [RedisSettings] is the
// default implementation.
type Settings interface {
	Load(ctx context.Context) (map[string]string, error)
	Merge(ctx context.Context, values map[string]string) error
}

// Store serves typed policy reads from an in-process cache and writes
// through to the settings backend. The cache is the only in-process shared
// mutable state in the engine; it is invalidated synchronously on Patch so
// a read following a patch never observes the old policy from this process.
type Store struct {
	settings Settings

	mu     sync.RWMutex
	cached *Policy
}

// NewStore creates a policy [Store].
func NewStore(settings Settings) *Store {
	return &Store{settings: settings}
}

// Policy returns the current typed policy, loading and caching it on first
// use.
func (s *Store) Policy(ctx context.Context) (Policy, error) {
	s.mu.RLock()
	if s.cached != nil {
		p := *s.cached
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	values, err := s.settings.Load(ctx)
	if err != nil {
		return Policy{}, err
	}
	keyed := make(map[Key]string, len(values))
	for k, v := range values {
		keyed[Key(k)] = v
	}

	p, err := decode(keyed)
	if err != nil {
		return Policy{}, err
	}
	s.cached = &p
	return p, nil
}

// Get returns the persisted string value for one key, falling back to the
// documented default when unset.
func (s *Store) Get(ctx context.Context, key Key) (string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	value, ok := all[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return value, nil
}

// All returns every policy key with its effective string value (persisted
// or default).
func (s *Store) All(ctx context.Context) (map[Key]string, error) {
	values, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := defaultValues()
	for k, v := range values {
		key := Key(k)
		if _, known := out[key]; known {
			out[key] = v
		}
	}
	return out, nil
}

// Patch validates and writes the given values through to the settings
// backend, then drops the cache. Unknown keys and malformed values reject
// the whole patch.
func (s *Store) Patch(ctx context.Context, values map[Key]string) error {
	if len(values) == 0 {
		return nil
	}
	for key, raw := range values {
		if err := validate(key, raw); err != nil {
			return fmt.Errorf("policy key %q: %w", key, err)
		}
	}

	flat := make(map[string]string, len(values))
	for k, v := range values {
		flat[string(k)] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Merge(ctx, flat); err != nil {
		return err
	}
	s.cached = nil
	return nil
}

// Invalidate drops the cache; the next read reloads from settings. Used
// when the settings backend is mutated out of band.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// RedisSettings persists policy values in a single Redis hash.
type RedisSettings struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisSettings creates a [RedisSettings] store under the given hash key.
func NewRedisSettings(redisClient redis.UniversalClient, key string) *RedisSettings {
	if key == "" {
		key = "apolicy"
	}
	return &RedisSettings{redis: redisClient, key: key}
}

// Load returns all persisted policy values.
func (r *RedisSettings) Load(ctx context.Context) (map[string]string, error) {
	values, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	return values, nil
}

// Merge upserts the given values into the hash.
func (r *RedisSettings) Merge(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	flat := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		flat = append(flat, k, v)
	}
	if err := r.redis.HSet(ctx, r.key, flat...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	return nil
}
