package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/authcore-dev/authcore/internal/flows"
)

func (e *Engine) signInDeps(ctx context.Context, pol LoginPolicy, purpose Purpose) flows.SignInDeps {
	return flows.SignInDeps{
		Now:         e.timeNow,
		FindAccount: e.findAccountFunc(),

		RecentFailures: func(ctx context.Context, accountID string, now time.Time) (int, error) {
			return e.credentials.RecentFailures(ctx, accountID, pol.LockoutWindow, now)
		},
		LockoutMaxAttempts: pol.LockoutMaxAttempts,

		VerifyPassword: e.credentials.VerifyPassword,
		ValidateCode:   e.validateCodeFunc(purpose),

		CreateSession:  e.createSession,
		TouchLastLogin: e.provider.TouchLastLogin,

		EmitAudit: e.auditEmitter(ctx),
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Metrics: flows.SignInMetrics{
			Success:        int(MetricSignInSuccess),
			Failure:        int(MetricSignInFailure),
			LockedOut:      int(MetricSignInLockedOut),
			SessionCreated: int(MetricSessionCreated),
		},
	}
}

// SignInWithPassword authenticates an account by identifier and password.
// The identifier kind must be allowed by the current policy. Every expected
// state (unknown account, disabled, locked out, wrong password) returns a
// discriminated [Status]; wrong-password attempts are audited and feed the
// lockout computation.
func (e *Engine) SignInWithPassword(ctx context.Context, kind IdentifierKind, value, pass string) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.identifiers.valid(kind, value) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIdentifier, kind)
	}

	pol, err := e.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if !identifierAllowed(pol.PasswordIdentifiers, kind) {
		return nil, fmt.Errorf("%w: %s", ErrIdentifierNotAllowed, kind)
	}

	result, err := flows.RunPasswordSignIn(ctx, string(kind), value, pass, e.signInDeps(ctx, pol, PurposeSignIn))
	if err != nil {
		return nil, err
	}
	return signInResult(result), nil
}

// SignInWithCode authenticates an account by identifier and a previously
// issued sign-in code. The delivery channel must be allowed by the current
// policy.
func (e *Engine) SignInWithCode(ctx context.Context, kind IdentifierKind, value string, channel Channel, code string) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !channel.valid() {
		return nil, ErrInvalidChannel
	}
	if !e.identifiers.valid(kind, value) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIdentifier, kind)
	}

	pol, err := e.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if !channelAllowed(pol.SignInChannels, channel) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotAllowed, channel)
	}

	result, err := flows.RunCodeSignIn(ctx, string(kind), value, uint8(channel), code, e.signInDeps(ctx, pol, PurposeSignIn))
	if err != nil {
		return nil, err
	}
	return signInResult(result), nil
}

func signInResult(result *flows.SignInResult) *SignInResult {
	return &SignInResult{
		Status:            Status(result.Status),
		AccountID:         result.AccountID,
		AccessToken:       result.AccessToken,
		MustResetPassword: result.MustResetPassword,
	}
}
