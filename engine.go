package authcore

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/flows"
	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/policy"
	"github.com/authcore-dev/authcore/internal/rbac"
	"github.com/authcore-dev/authcore/internal/stores"
	"github.com/authcore-dev/authcore/jwt"
	"github.com/authcore-dev/authcore/password"
	"github.com/google/uuid"
)

// Engine is the authentication and authorization core. Configure it once
// through [Builder] and treat it as immutable; all methods are safe for
// concurrent use.
type Engine struct {
	config Config

	provider    AccountProvider
	credentials *CredentialValidator
	jwtManager  *jwt.Manager
	hasher      *password.Hasher
	identifiers *identifierMatcher

	verificationStore *stores.VerificationStore
	tokenStore        *stores.TokenStore
	sendLimiter       *limiters.SendLimiter

	trail      *audit.Trail
	dispatcher *audit.Dispatcher
	policies   *policy.Store
	resolver   *rbac.Resolver
	metrics    *Metrics

	// now is replaceable in tests.
	now func() time.Time
}

// Close drains the audit dispatcher. The engine must not be used after.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
}

// AuditDropped returns the number of audit events the async dispatcher
// discarded because its buffer was full. The synchronous trail is unaffected.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

// MetricsSnapshot returns current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// RecentAuditEvents returns up to limit trail entries for the account, event
// type, and status, newest first.
func (e *Engine) RecentAuditEvents(ctx context.Context, accountID string, eventType EventType, status Status, limit int) ([]AuditEvent, error) {
	if e == nil || e.trail == nil {
		return nil, ErrEngineNotReady
	}
	return e.trail.Recent(ctx, accountID, string(eventType), string(status), limit)
}

func (e *Engine) timeNow() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) warnf(format string, args ...any) {
	if e.config.Warn != nil {
		e.config.Warn(format, args...)
	}
}

// emitAudit persists one entry to the trail synchronously, then hands it to
// the async dispatcher. The trail write must succeed before the calling flow
// may return its outcome; a failure aborts the flow.
func (e *Engine) emitAudit(ctx context.Context, eventType, status, accountID string) error {
	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: e.timeNow(),
		EventType: eventType,
		Status:    status,
		AccountID: accountID,
	}
	if info, ok := ClientInfoFromContext(ctx); ok {
		event.IP = info.IP
		event.OS = info.OS
		event.Device = info.Device
		event.Browser = info.Browser
	}

	if err := e.trail.Append(ctx, event); err != nil {
		return err
	}
	e.dispatcher.Emit(ctx, event)
	return nil
}

func (e *Engine) auditEmitter(ctx context.Context) flows.EmitFunc {
	return func(eventType, status, accountID string) error {
		return e.emitAudit(ctx, eventType, status, accountID)
	}
}

// accountRecord converts a provider account into the flow-local shape.
func accountRecord(account *Account) (flows.AccountRecord, bool) {
	if account == nil {
		return flows.AccountRecord{}, false
	}
	return flows.AccountRecord{
		ID:                account.ID,
		Username:          account.Username,
		Mobile:            account.Mobile,
		Email:             account.Email,
		PasswordHash:      account.PasswordHash,
		Disabled:          account.Disabled,
		Deleted:           account.Deleted,
		MustResetPassword: account.MustResetPassword,
	}, true
}

func (e *Engine) findAccountFunc() func(context.Context, string, string) (flows.AccountRecord, bool, error) {
	return func(ctx context.Context, kind, value string) (flows.AccountRecord, bool, error) {
		account, err := e.credentials.FindAccount(ctx, IdentifierKind(kind), value)
		if err != nil {
			return flows.AccountRecord{}, false, err
		}
		record, found := accountRecord(account)
		return record, found, nil
	}
}

func (e *Engine) findAccountByIDFunc() func(context.Context, string) (flows.AccountRecord, bool, error) {
	return func(ctx context.Context, accountID string) (flows.AccountRecord, bool, error) {
		account, err := e.provider.AccountByID(ctx, accountID)
		if err != nil {
			return flows.AccountRecord{}, false, err
		}
		record, found := accountRecord(account)
		return record, found, nil
	}
}
