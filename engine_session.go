package authcore

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/flows"
	"github.com/authcore-dev/authcore/internal/stores"
	"github.com/google/uuid"
)

// createSession mints a signed token and persists its server-side record.
// With a zero policy TTL the token carries no expiry claim and the record no
// Redis TTL; revocation is the only way such a session dies.
func (e *Engine) createSession(ctx context.Context, accountID string) (string, error) {
	pol, err := e.Policy(ctx)
	if err != nil {
		return "", err
	}

	now := e.timeNow()
	tokenID := uuid.NewString()

	token, err := e.jwtManager.Sign(accountID, tokenID, pol.SessionTTL, now)
	if err != nil {
		return "", err
	}

	record := &stores.TokenRecord{
		ID:        tokenID,
		AccountID: accountID,
		CreatedAt: now.Unix(),
	}
	if err := e.tokenStore.Save(ctx, token, record, pol.SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// CreateSession mints a session for an account that was authenticated out of
// band (for example by the embedding application's SSO bridge). Normal
// sign-in paths mint their own sessions.
func (e *Engine) CreateSession(ctx context.Context, accountID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if accountID == "" {
		return "", ErrInvalidIdentifier
	}
	return e.createSession(ctx, accountID)
}

func (e *Engine) sessionDeps(ctx context.Context) flows.SessionDeps {
	return flows.SessionDeps{
		Now: e.timeNow,
		ParseToken: func(raw string) (string, string, error) {
			claims, err := e.jwtManager.Parse(raw)
			if err != nil {
				return "", "", err
			}
			return claims.AccountID(), claims.TokenID(), nil
		},
		LookupToken:     e.tokenStore.Lookup,
		RevokeToken:     e.tokenStore.Revoke,
		FindAccountByID: e.findAccountByIDFunc(),

		EmitAudit: e.auditEmitter(ctx),
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Metrics: flows.SessionMetrics{
			Authenticated: int(MetricAuthenticated),
			Rejected:      int(MetricAuthRejected),
			Revoked:       int(MetricSessionRevoked),
		},
		Warn: e.warnf,
	}
}

// Authenticate checks a raw access token: signature, server-side record,
// revocation, and account liveness. A nil session with a nil error means the
// token is invalid; the reason is logged through Warn but never exposed, so
// callers cannot distinguish a revoked session from a forged token.
func (e *Engine) Authenticate(ctx context.Context, rawToken string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunAuthenticate(ctx, rawToken, e.sessionDeps(ctx))
	if err != nil || result == nil {
		return nil, err
	}
	return &Session{
		AccountID: result.AccountID,
		TokenID:   result.TokenID,
		IssuedAt:  result.IssuedAt,
	}, nil
}

// SignOut revokes the session behind a raw token and audits the sign-out.
// Unknown and already-revoked tokens are a silent no-op, making SignOut
// idempotent. The session is rejected by Authenticate from this call on,
// regardless of the token's remaining cryptographic lifetime.
func (e *Engine) SignOut(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunSignOut(ctx, rawToken, e.sessionDeps(ctx))
}

// RevokeSession revokes the session behind a raw token without writing a
// sign-out audit entry. Intended for administrative revocation; self-service
// sign-out should use [Engine.SignOut].
func (e *Engine) RevokeSession(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	record, err := e.tokenStore.Revoke(ctx, rawToken, e.timeNow())
	if err != nil {
		return err
	}
	if record != nil {
		e.metricInc(MetricSessionRevoked)
	}
	return nil
}

// SessionRecord returns the server-side state behind a raw token, including
// revoked records. A nil record with a nil error means no record exists.
func (e *Engine) SessionRecord(ctx context.Context, rawToken string) (*Session, bool, error) {
	if e == nil {
		return nil, false, ErrEngineNotReady
	}
	record, err := e.tokenStore.Lookup(ctx, rawToken)
	if err != nil {
		if err == stores.ErrTokenNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &Session{
		AccountID: record.AccountID,
		TokenID:   record.ID,
		IssuedAt:  time.Unix(record.CreatedAt, 0),
	}, record.Revoked(), nil
}
