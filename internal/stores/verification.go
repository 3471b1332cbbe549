package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationRecordVersionV1 = 1

	// Records are retained well past their validity window so an expired
	// code still answers "expired" instead of "request a new code".
	defaultRecordRetention = 24 * time.Hour
)

var (
	// ErrRecordNotFound is returned when no record exists for the tuple.
	ErrRecordNotFound = errors.New("verification record not found")
	// ErrVerificationUnavailable indicates the backing store is unreachable.
	ErrVerificationUnavailable = errors.New("verification store unavailable")
)

// VerificationRecord is the persisted state of one issued code for a
// (subject, channel, purpose) tuple. It is mutated in place on validation
// and never deleted before its retention horizon.
type VerificationRecord struct {
	Subject    string
	Channel    uint8
	Purpose    uint8
	CodeHash   [32]byte
	Attempts   uint16
	CreatedAt  int64
	ExpiresAt  int64
	ConsumedAt int64 // 0 = not consumed
}

// Consumable reports whether the record can still satisfy a validation:
// not yet consumed and within the incorrect-attempt budget. maxAttempts <= 0
// means the attempt budget is disabled.
func (r *VerificationRecord) Consumable(maxAttempts int) bool {
	if r.ConsumedAt != 0 {
		return false
	}
	if maxAttempts > 0 && int(r.Attempts) >= maxAttempts {
		return false
	}
	return true
}

// ValidateOutcome is the discriminated result of a validation attempt.
type ValidateOutcome uint8

const (
	// ValidateNoRecord means no consumable record exists; the caller must
	// request a fresh code.
	ValidateNoRecord ValidateOutcome = iota
	// ValidateMismatch means the submitted code was wrong; the attempt was
	// counted.
	ValidateMismatch
	// ValidateAttemptsExceeded means this wrong attempt reached the budget
	// and the record has been locked out.
	ValidateAttemptsExceeded
	// ValidateExpired means the code matched but its validity window has
	// passed.
	ValidateExpired
	// ValidateOK means the code matched and the record is now consumed.
	ValidateOK
)

// VerificationStore persists verification records in Redis, one current
// record per (subject, channel, purpose) tuple. All state transitions run
// under WATCH so concurrent validations cannot both spend the same budget.
type VerificationStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewVerificationStore creates a [VerificationStore].
func NewVerificationStore(redisClient redis.UniversalClient, prefix string, retention time.Duration) *VerificationStore {
	if prefix == "" {
		prefix = "avc"
	}
	if retention <= 0 {
		retention = defaultRecordRetention
	}
	return &VerificationStore{redis: redisClient, prefix: prefix, retention: retention}
}

func (s *VerificationStore) key(subject string, channel, purpose uint8) string {
	return fmt.Sprintf("%s:%s:%d:%d", s.prefix, subject, channel, purpose)
}

// Put installs record as the current record for its tuple, replacing any
// previous one.
func (s *VerificationStore) Put(ctx context.Context, record *VerificationRecord) error {
	data, err := encodeVerificationRecord(record)
	if err != nil {
		return err
	}

	ttl := s.retention
	if until := time.Until(time.Unix(record.ExpiresAt, 0)); until > ttl {
		ttl = until
	}

	key := s.key(record.Subject, record.Channel, record.Purpose)
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	return nil
}

// Current returns the current record for the tuple, consumed or not.
func (s *VerificationStore) Current(ctx context.Context, subject string, channel, purpose uint8) (*VerificationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(subject, channel, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	return decodeVerificationRecord(data)
}

// Validate runs one validation attempt as a single atomic transition.
//
// The consumable record for the tuple is selected (none → ValidateNoRecord).
// On a hash mismatch the attempt counter is incremented; when the counter
// reaches maxAttempts the record's expiry is forced to now, locking it out
// permanently. On a match past the expiry the outcome is ValidateExpired
// with no state change. Otherwise the record is consumed.
//
// The returned attempt count reflects the state after the call.
func (s *VerificationStore) Validate(
	ctx context.Context,
	subject string,
	channel, purpose uint8,
	providedHash [32]byte,
	maxAttempts int,
	now time.Time,
) (ValidateOutcome, uint16, error) {
	const maxRetries = 4
	key := s.key(subject, channel, purpose)

	for i := 0; i < maxRetries; i++ {
		var (
			outcome  ValidateOutcome
			attempts uint16
		)

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					outcome = ValidateNoRecord
					return nil
				}
				return err
			}

			record, err := decodeVerificationRecord(data)
			if err != nil {
				return err
			}

			if !record.Consumable(maxAttempts) {
				outcome = ValidateNoRecord
				return nil
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				record.Attempts++
				attempts = record.Attempts
				outcome = ValidateMismatch
				if maxAttempts > 0 && int(record.Attempts) >= maxAttempts {
					record.ExpiresAt = now.Unix()
					outcome = ValidateAttemptsExceeded
				}
				return s.rewrite(ctx, tx, key, record)
			}

			attempts = record.Attempts
			if now.Unix() > record.ExpiresAt {
				outcome = ValidateExpired
				return nil
			}

			record.ConsumedAt = now.Unix()
			outcome = ValidateOK
			return s.rewrite(ctx, tx, key, record)
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return ValidateNoRecord, 0, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
		}
		return outcome, attempts, nil
	}

	return ValidateNoRecord, 0, fmt.Errorf("%w: transaction contention", ErrVerificationUnavailable)
}

func (s *VerificationStore) rewrite(ctx context.Context, tx *redis.Tx, key string, record *VerificationRecord) error {
	data, err := encodeVerificationRecord(record)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, redis.KeepTTL)
		return nil
	})
	return err
}

func encodeVerificationRecord(record *VerificationRecord) ([]byte, error) {
	if len(record.Subject) > 255 {
		return nil, errors.New("verification subject too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(verificationRecordVersionV1)
	buf.WriteByte(record.Channel)
	buf.WriteByte(record.Purpose)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	for _, ts := range []int64{record.CreatedAt, record.ExpiresAt, record.ConsumedAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	buf.WriteByte(byte(len(record.Subject)))
	buf.WriteString(record.Subject)
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeVerificationRecord(data []byte) (*VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != verificationRecordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	record := &VerificationRecord{}
	if record.Channel, err = reader.ReadByte(); err != nil {
		return nil, err
	}
	if record.Purpose, err = reader.ReadByte(); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	for _, ts := range []*int64{&record.CreatedAt, &record.ExpiresAt, &record.ConsumedAt} {
		if err := binary.Read(reader, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	subjectLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	subject := make([]byte, subjectLen)
	if _, err := io.ReadFull(reader, subject); err != nil {
		return nil, err
	}
	record.Subject = string(subject)

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}
	return record, nil
}
