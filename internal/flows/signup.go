package flows

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/stores"
)

// SignUpResult is the flow-local sign-up response shape.
type SignUpResult struct {
	Status      string
	AccountID   string
	AccessToken string
}

// SignUpMetrics carries metric IDs used by the sign-up flow.
type SignUpMetrics struct {
	Success int
	Failure int
}

// SignUpDeps captures sign-up dependencies.
type SignUpDeps struct {
	Now func() time.Time

	// ValidateCode validates the sign-up code issued to the raw identifier
	// (the account does not exist yet, so the identifier is the subject).
	ValidateCode func(ctx context.Context, subject string, channel uint8, submitted string) (stores.ValidateOutcome, uint16, error)

	// CreateAccount persists the new account. Duplicate identifiers are a
	// Conflict owned by the provider and propagate as errors.
	CreateAccount func(ctx context.Context, kind, value, passwordHash string) (AccountRecord, error)
	HashPassword  func(password string) (string, error)

	CreateSession func(ctx context.Context, accountID string) (string, error)

	EmitAudit EmitFunc
	MetricInc func(int)
	Metrics   SignUpMetrics
}

// RunSignUpWithCode validates a sign-up code issued to the identifier and,
// on success, creates the account and mints its first session. Password is
// optional; accounts created without one can only sign in by code until a
// password is set.
func RunSignUpWithCode(
	ctx context.Context,
	kind, value string,
	channel uint8,
	submitted, password string,
	deps SignUpDeps,
) (*SignUpResult, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.ValidateCode == nil || deps.CreateAccount == nil ||
		deps.CreateSession == nil || deps.EmitAudit == nil {
		return nil, ErrFlowNotReady
	}

	outcome, _, err := deps.ValidateCode(ctx, value, channel, submitted)
	if err != nil {
		return nil, err
	}
	if status, failed := codeFailureStatus(outcome); failed {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventSignUp, status, ""); err != nil {
			return nil, err
		}
		return &SignUpResult{Status: status}, nil
	}

	var passwordHash string
	if password != "" {
		if deps.HashPassword == nil {
			return nil, ErrFlowNotReady
		}
		passwordHash, err = deps.HashPassword(password)
		if err != nil {
			return nil, err
		}
	}

	account, err := deps.CreateAccount(ctx, kind, value, passwordHash)
	if err != nil {
		return nil, err
	}

	token, err := deps.CreateSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	if err := deps.EmitAudit(audit.EventSignUp, audit.StatusOK, account.ID); err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.Success)
	return &SignUpResult{
		Status:      audit.StatusOK,
		AccountID:   account.ID,
		AccessToken: token,
	}, nil
}
