package flows

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/stores"
)

// SessionMetrics carries metric IDs used by the session flows.
type SessionMetrics struct {
	Authenticated int
	Rejected      int
	Revoked       int
}

// AuthResult is the flow-local outcome of an access-token check.
type AuthResult struct {
	AccountID string
	TokenID   string
	IssuedAt  time.Time
}

// SessionDeps captures authentication and sign-out dependencies.
type SessionDeps struct {
	Now func() time.Time

	// ParseToken verifies the token signature and registered claims and
	// returns the subject (account ID) and token ID.
	ParseToken func(raw string) (accountID, tokenID string, err error)

	// LookupToken resolves the raw token to its server-side record.
	LookupToken func(ctx context.Context, raw string) (*stores.TokenRecord, error)
	RevokeToken func(ctx context.Context, raw string, at time.Time) (*stores.TokenRecord, error)

	FindAccountByID func(ctx context.Context, accountID string) (AccountRecord, bool, error)

	EmitAudit EmitFunc
	MetricInc func(int)
	Metrics   SessionMetrics

	// Warn receives the internal rejection reason; callers only see a
	// generic invalid-session result.
	Warn func(format string, args ...any)
}

// RunAuthenticate checks a raw access token end to end: signature, server-side
// record, revocation, and account liveness. Any failure yields (nil, nil) so
// callers cannot distinguish rejection reasons.
func RunAuthenticate(ctx context.Context, raw string, deps SessionDeps) (*AuthResult, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.ParseToken == nil || deps.LookupToken == nil {
		return nil, ErrFlowNotReady
	}

	accountID, tokenID, err := deps.ParseToken(raw)
	if err != nil {
		deps.MetricInc(deps.Metrics.Rejected)
		deps.warnf("authenticate: token rejected: %v", err)
		return nil, nil
	}

	record, err := deps.LookupToken(ctx, raw)
	if err != nil {
		if err == stores.ErrTokenNotFound {
			deps.MetricInc(deps.Metrics.Rejected)
			deps.warnf("authenticate: no session record for token %s", tokenID)
			return nil, nil
		}
		return nil, err
	}
	if record.RevokedAt != 0 {
		deps.MetricInc(deps.Metrics.Rejected)
		deps.warnf("authenticate: session %s revoked", record.ID)
		return nil, nil
	}
	// A signed token whose claims disagree with the server-side record means
	// the record was replaced or the token forged. Either way, reject.
	if record.AccountID != accountID || record.ID != tokenID {
		deps.MetricInc(deps.Metrics.Rejected)
		deps.warnf("authenticate: claim/record mismatch for token %s", tokenID)
		return nil, nil
	}

	if deps.FindAccountByID != nil {
		account, found, err := deps.FindAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if !found || account.Deleted || account.Disabled {
			deps.MetricInc(deps.Metrics.Rejected)
			deps.warnf("authenticate: account %s not signable", accountID)
			return nil, nil
		}
	}

	deps.MetricInc(deps.Metrics.Authenticated)
	return &AuthResult{
		AccountID: accountID,
		TokenID:   tokenID,
		IssuedAt:  time.Unix(record.CreatedAt, 0),
	}, nil
}

// RunSignOut revokes the session behind a raw token. Unknown and
// already-revoked tokens are a no-op; the audit entry is written only when an
// active session was actually revoked.
func RunSignOut(ctx context.Context, raw string, deps SessionDeps) error {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.RevokeToken == nil || deps.EmitAudit == nil {
		return ErrFlowNotReady
	}

	record, err := deps.RevokeToken(ctx, raw, deps.Now())
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	deps.MetricInc(deps.Metrics.Revoked)
	return deps.EmitAudit(audit.EventSignOut, audit.StatusOK, record.AccountID)
}

func (d SessionDeps) warnf(format string, args ...any) {
	if d.Warn != nil {
		d.Warn(format, args...)
	}
}
