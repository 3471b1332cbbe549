package authcore

import (
	"context"
	"errors"
	"log"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/policy"
	"github.com/authcore-dev/authcore/internal/rbac"
	"github.com/authcore-dev/authcore/internal/stores"
	"github.com/authcore-dev/authcore/jwt"
	"github.com/authcore-dev/authcore/password"
	"github.com/redis/go-redis/v9"
)

// PolicySettings is the key-value persistence contract for login policy
// values, owned by the embedding application's settings layer. The default
// backend stores values in a Redis hash.
type PolicySettings interface {
	Load(ctx context.Context) (map[string]string, error)
	Merge(ctx context.Context, values map[string]string) error
}

// Builder assembles an [Engine]. A builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accountProvider AccountProvider
	directory       Directory
	auditSink       AuditSink
	settings        PolicySettings

	built bool
}

// New returns a builder seeded with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration. Zero-valued sections keep their
// zero values; start from the default by mutating a fresh builder's config
// through the other With methods when that is not wanted.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing all engine state.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountProvider sets the account data contract. Required.
func (b *Builder) WithAccountProvider(provider AccountProvider) *Builder {
	b.accountProvider = provider
	return b
}

// WithDirectory sets the role/organization directory. Optional; without it
// the authorization operations return [ErrEngineNotReady].
func (b *Builder) WithDirectory(directory Directory) *Builder {
	b.directory = directory
	return b
}

// WithAuditSink sets the asynchronous audit consumer. Optional; the trail is
// written regardless.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithPolicySettings replaces the default Redis-hash policy backend.
func (b *Builder) WithPolicySettings(settings PolicySettings) *Builder {
	b.settings = settings
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accountProvider == nil {
		return nil, errors.New("account provider required")
	}
	if cfg.Warn == nil {
		cfg.Warn = log.Printf
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	matcher, err := newIdentifierMatcher(cfg.Identifier.MobilePattern)
	if err != nil {
		return nil, err
	}

	settings := b.settings
	if settings == nil {
		settings = policy.NewRedisSettings(b.redis, cfg.Policy.SettingsKey)
	}

	trail := audit.NewTrail(b.redis, cfg.Audit.RedisPrefix, cfg.Audit.Retention)

	engine := &Engine{
		config:            cfg,
		provider:          b.accountProvider,
		jwtManager:        jwtManager,
		hasher:            hasher,
		identifiers:       matcher,
		verificationStore: stores.NewVerificationStore(b.redis, cfg.Verification.RedisPrefix, cfg.Verification.RecordRetention),
		tokenStore:        stores.NewTokenStore(b.redis, cfg.Session.RedisPrefix),
		sendLimiter:       limiters.NewSendLimiter(b.redis, cfg.Verification.LimiterPrefix),
		trail:             trail,
		dispatcher: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.DispatchEnabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		policies: policy.NewStore(settings),
		metrics:  NewMetrics(cfg.Metrics),
	}
	engine.credentials = NewCredentialValidator(b.accountProvider, hasher, trail)
	if b.directory != nil {
		engine.resolver = rbac.NewResolver(directoryAdapter{b.directory})
	}

	b.built = true
	return engine, nil
}

// directoryAdapter bridges the public Directory contract to the resolver.
type directoryAdapter struct {
	directory Directory
}

func (a directoryAdapter) RolesForAccount(ctx context.Context, accountID string) ([]rbac.RoleRecord, error) {
	roles, err := a.directory.RolesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]rbac.RoleRecord, 0, len(roles))
	for _, role := range roles {
		record := rbac.RoleRecord{
			ID:         role.ID,
			Name:       role.Name,
			Code:       role.Code,
			OrgScopeID: role.OrgScopeID,
		}
		for _, perm := range role.Permissions {
			record.Permissions = append(record.Permissions, rbac.PermissionRecord{
				ID:            perm.ID,
				Code:          perm.Code,
				ApplicationID: perm.ApplicationID,
			})
		}
		out = append(out, record)
	}
	return out, nil
}

func (a directoryAdapter) OrgPlacement(ctx context.Context, accountID string) ([]string, error) {
	return a.directory.OrgPlacement(ctx, accountID)
}
