package flows

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/stores"
)

// SignInResult is the flow-local sign-in response shape. Status is one of
// the canonical outcome codes; AccessToken is set only on StatusOK.
type SignInResult struct {
	Status            string
	AccountID         string
	AccessToken       string
	MustResetPassword bool
}

// SignInMetrics carries metric IDs used by sign-in flows.
type SignInMetrics struct {
	Success        int
	Failure        int
	LockedOut      int
	SessionCreated int
}

// SignInDeps captures password and code sign-in dependencies.
type SignInDeps struct {
	Now func() time.Time

	// FindAccount resolves exactly one identifier kind ("username",
	// "mobile", "email") to an account.
	FindAccount func(ctx context.Context, kind, value string) (AccountRecord, bool, error)

	// RecentFailures counts failed-password audit entries under the
	// combined lockout bounds (rolling window AND since last success).
	RecentFailures     func(ctx context.Context, accountID string, now time.Time) (int, error)
	LockoutMaxAttempts int

	VerifyPassword func(password, hash string) (bool, error)

	// ValidateCode runs a sign-in code validation for the account's
	// delivery identifier on the given channel.
	ValidateCode func(ctx context.Context, subject string, channel uint8, submitted string) (stores.ValidateOutcome, uint16, error)

	CreateSession  func(ctx context.Context, accountID string) (string, error)
	TouchLastLogin func(ctx context.Context, accountID string, at time.Time) error

	EmitAudit EmitFunc
	MetricInc func(int)
	Metrics   SignInMetrics
}

// RunPasswordSignIn executes the password sign-in flow. Every non-OK branch
// is audited before returning; the INVALID_PASSWORD entries written here
// are exactly what the lockout computation counts on later attempts.
func RunPasswordSignIn(ctx context.Context, kind, value, password string, deps SignInDeps) (*SignInResult, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.FindAccount == nil || deps.VerifyPassword == nil ||
		deps.CreateSession == nil || deps.EmitAudit == nil {
		return nil, ErrFlowNotReady
	}

	account, found, err := deps.FindAccount(ctx, kind, value)
	if err != nil {
		return nil, err
	}
	if !found || account.Deleted {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, audit.StatusAccountNotExists, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: audit.StatusAccountNotExists}, nil
	}
	if account.Disabled {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, audit.StatusAccountDisabled, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: audit.StatusAccountDisabled, AccountID: account.ID}, nil
	}

	if deps.LockoutMaxAttempts > 0 && deps.RecentFailures != nil {
		failures, err := deps.RecentFailures(ctx, account.ID, deps.Now())
		if err != nil {
			return nil, err
		}
		// Locked out before the password is even compared.
		if failures >= deps.LockoutMaxAttempts {
			deps.MetricInc(deps.Metrics.LockedOut)
			if err := deps.EmitAudit(audit.EventSignIn, audit.StatusPasswordAttemptsExceeded, account.ID); err != nil {
				return nil, err
			}
			return &SignInResult{Status: audit.StatusPasswordAttemptsExceeded, AccountID: account.ID}, nil
		}
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, audit.StatusInvalidPassword, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: audit.StatusInvalidPassword, AccountID: account.ID}, nil
	}

	return finishSignIn(ctx, account, deps)
}

// RunCodeSignIn executes the one-time-code sign-in flow.
func RunCodeSignIn(ctx context.Context, kind, value string, channel uint8, submitted string, deps SignInDeps) (*SignInResult, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.FindAccount == nil || deps.ValidateCode == nil ||
		deps.CreateSession == nil || deps.EmitAudit == nil {
		return nil, ErrFlowNotReady
	}

	account, found, err := deps.FindAccount(ctx, kind, value)
	if err != nil {
		return nil, err
	}
	if !found || account.Deleted {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, audit.StatusAccountNotExists, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: audit.StatusAccountNotExists}, nil
	}
	if account.Disabled {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, audit.StatusAccountDisabled, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: audit.StatusAccountDisabled, AccountID: account.ID}, nil
	}

	outcome, _, err := deps.ValidateCode(ctx, account.ID, channel, submitted)
	if err != nil {
		return nil, err
	}
	if status, failed := codeFailureStatus(outcome); failed {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignIn, status, account.ID); err != nil {
			return nil, err
		}
		return &SignInResult{Status: status, AccountID: account.ID}, nil
	}

	return finishSignIn(ctx, account, deps)
}

func finishSignIn(ctx context.Context, account AccountRecord, deps SignInDeps) (*SignInResult, error) {
	token, err := deps.CreateSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	if deps.TouchLastLogin != nil {
		if err := deps.TouchLastLogin(ctx, account.ID, deps.Now()); err != nil {
			return nil, err
		}
	}

	// The OK entry doubles as the lockout counter's "since last success"
	// bound, so it must land before the result is returned.
	if err := deps.EmitAudit(audit.EventSignIn, audit.StatusOK, account.ID); err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	return &SignInResult{
		Status:            audit.StatusOK,
		AccountID:         account.ID,
		AccessToken:       token,
		MustResetPassword: account.MustResetPassword,
	}, nil
}

// codeFailureStatus maps a non-OK validation outcome to its status code.
func codeFailureStatus(outcome stores.ValidateOutcome) (string, bool) {
	switch outcome {
	case stores.ValidateNoRecord:
		return audit.StatusInvalidCode, true
	case stores.ValidateMismatch:
		return audit.StatusCodeIncorrect, true
	case stores.ValidateAttemptsExceeded:
		return audit.StatusCodeAttemptsExceeded, true
	case stores.ValidateExpired:
		return audit.StatusCodeExpired, true
	default:
		return "", false
	}
}
