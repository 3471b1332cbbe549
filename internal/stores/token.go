package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenRecordVersionV1 = 1

var (
	// ErrTokenNotFound is returned when no record matches the raw token.
	ErrTokenNotFound = errors.New("token record not found")
	// ErrTokenUnavailable indicates the backing store is unreachable.
	ErrTokenUnavailable = errors.New("token store unavailable")
)

// TokenRecord is the server-side state behind one bearer token. Revocation
// is monotonic: once RevokedAt is set it never clears.
type TokenRecord struct {
	ID        string
	AccountID string
	CreatedAt int64
	RevokedAt int64 // 0 = active
}

// Revoked reports whether the record has been revoked.
func (r *TokenRecord) Revoked() bool {
	return r.RevokedAt != 0
}

// TokenStore persists token records in Redis keyed by the SHA-256 of the
// raw bearer string, so the raw token is never stored server-side.
type TokenStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewTokenStore creates a [TokenStore].
func NewTokenStore(redisClient redis.UniversalClient, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "atk"
	}
	return &TokenStore{redis: redisClient, prefix: prefix}
}

func (s *TokenStore) key(rawToken string) string {
	digest := sha256.Sum256([]byte(rawToken))
	return s.prefix + ":" + base64.RawURLEncoding.EncodeToString(digest[:])
}

// Save persists the record for a raw token. A ttl of zero stores the record
// without expiry (session-scoped tokens have no cryptographic lifetime, so
// revocation is the only way they die).
func (s *TokenStore) Save(ctx context.Context, rawToken string, record *TokenRecord, ttl time.Duration) error {
	data, err := encodeTokenRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(rawToken), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	return nil
}

// Lookup returns the record matching the raw token.
func (s *TokenStore) Lookup(ctx context.Context, rawToken string) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.key(rawToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	return decodeTokenRecord(data)
}

// Revoke marks the record revoked at the given time. Revoking an unknown or
// already-revoked token is a no-op success; the record is returned only when
// this call performed the transition.
func (s *TokenStore) Revoke(ctx context.Context, rawToken string, now time.Time) (*TokenRecord, error) {
	const maxRetries = 4
	key := s.key(rawToken)

	for i := 0; i < maxRetries; i++ {
		var revoked *TokenRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return err
			}

			record, err := decodeTokenRecord(data)
			if err != nil {
				return err
			}
			if record.Revoked() {
				return nil
			}

			record.RevokedAt = now.Unix()
			updated, err := encodeTokenRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			if err != nil {
				return err
			}
			revoked = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
		}
		return revoked, nil
	}

	return nil, fmt.Errorf("%w: transaction contention", ErrTokenUnavailable)
}

func encodeTokenRecord(record *TokenRecord) ([]byte, error) {
	if len(record.ID) > 255 || len(record.AccountID) > 255 {
		return nil, errors.New("token record field too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(tokenRecordVersionV1)
	for _, ts := range []int64{record.CreatedAt, record.RevokedAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(byte(len(record.ID)))
	buf.WriteString(record.ID)
	buf.WriteByte(byte(len(record.AccountID)))
	buf.WriteString(record.AccountID)

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (*TokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenRecordVersionV1 {
		return nil, errors.New("invalid token record version")
	}

	record := &TokenRecord{}
	for _, ts := range []*int64{&record.CreatedAt, &record.RevokedAt} {
		if err := binary.Read(reader, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	for _, field := range []*string{&record.ID, &record.AccountID} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}
	return record, nil
}
