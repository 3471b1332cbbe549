package authcore

import (
	"errors"
	"time"

	"github.com/authcore-dev/authcore/jwt"
	"github.com/authcore-dev/authcore/password"
)

// JWTConfig holds signing material for session tokens.
type JWTConfig struct {
	// SigningMethod is "ed25519" (default) or "hs256".
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	KeyID         string
}

// VerificationConfig controls code issuance and record storage.
type VerificationConfig struct {
	// CodeDigits is the generated code length, 4 to 10. Default 6.
	CodeDigits int

	// RecordRetention bounds how long a record stays queryable after it can
	// no longer be consumed, so stale submissions still answer "expired"
	// instead of "request a new code". Default 24h.
	RecordRetention time.Duration

	// DemoCode, when non-empty, validates for the subjects listed in
	// DemoSubjects without touching the record store. Off by default; never
	// enable it outside test or demo deployments.
	DemoCode     string
	DemoSubjects []string

	RedisPrefix   string
	LimiterPrefix string
}

// SessionConfig controls token record storage.
type SessionConfig struct {
	RedisPrefix string
}

// AuditConfig controls the audit trail and the async sink dispatcher.
type AuditConfig struct {
	// Retention bounds how long trail entries stay queryable. It must exceed
	// the largest lockout window in use. Default 7 days.
	Retention   time.Duration
	RedisPrefix string

	// Dispatch controls the sink side. Trail writes are always synchronous;
	// only sink delivery is buffered.
	DispatchEnabled bool
	BufferSize      int
	DropIfFull      bool
}

// PolicyConfig controls login policy persistence.
type PolicyConfig struct {
	// SettingsKey is the Redis hash key used by the default settings
	// backend. Ignored when a custom [PolicySettings] is supplied.
	SettingsKey string
}

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// IdentifierConfig controls identifier format validation.
type IdentifierConfig struct {
	// MobilePattern is the anchored regular expression mobile numbers must
	// match. Default is the CN pattern `^1[3-9]\d{9}$`.
	MobilePattern string
}

// Config is the engine configuration tree. It is cloned by the builder and
// treated as immutable after Build.
type Config struct {
	JWT          JWTConfig
	Verification VerificationConfig
	Session      SessionConfig
	Audit        AuditConfig
	Policy       PolicyConfig
	Password     PasswordConfig
	Metrics      MetricsConfig
	Identifier   IdentifierConfig

	// Warn receives internal diagnostics (rejected sessions, best-effort
	// failures). Defaults to log.Printf.
	Warn func(format string, args ...any)
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			SigningMethod: string(jwt.MethodEd25519),
		},
		Verification: VerificationConfig{
			CodeDigits:      6,
			RecordRetention: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Retention:       7 * 24 * time.Hour,
			DispatchEnabled: true,
			BufferSize:      256,
			DropIfFull:      true,
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func (c *Config) validate() error {
	if c.Verification.CodeDigits != 0 &&
		(c.Verification.CodeDigits < 4 || c.Verification.CodeDigits > 10) {
		return errors.New("verification code digits must be 4 to 10")
	}
	if c.Verification.RecordRetention < 0 {
		return errors.New("verification record retention must be >= 0")
	}
	if c.Audit.Retention < 0 {
		return errors.New("audit retention must be >= 0")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Verification.DemoSubjects = cloneStrings(cfg.Verification.DemoSubjects)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
