package flows

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/stores"
)

// PasswordMetrics carries metric IDs used by the password flows.
type PasswordMetrics struct {
	Changed int
	Reset   int
	Failure int
}

// PasswordDeps captures change/reset password dependencies.
type PasswordDeps struct {
	Now func() time.Time

	FindAccountByID func(ctx context.Context, accountID string) (AccountRecord, bool, error)
	FindAccount     func(ctx context.Context, kind, value string) (AccountRecord, bool, error)

	VerifyPassword func(password, hash string) (bool, error)
	HashPassword   func(password string) (string, error)

	// ValidateCode validates a reset code issued to the account's delivery
	// identifier.
	ValidateCode func(ctx context.Context, subject string, channel uint8, submitted string) (stores.ValidateOutcome, uint16, error)

	UpdatePasswordHash  func(ctx context.Context, accountID, hash string) error
	ClearMustReset      func(ctx context.Context, accountID string) error
	RevokeOtherSessions func(ctx context.Context, accountID string) error

	EmitAudit EmitFunc
	MetricInc func(int)
	Metrics   PasswordMetrics
}

// RunChangePassword replaces an account's password after verifying the
// current one. The flow is addressed by account ID because it runs behind an
// already-authenticated session.
func RunChangePassword(ctx context.Context, accountID, current, next string, deps PasswordDeps) (string, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.FindAccountByID == nil || deps.VerifyPassword == nil ||
		deps.HashPassword == nil || deps.UpdatePasswordHash == nil || deps.EmitAudit == nil {
		return "", ErrFlowNotReady
	}

	account, found, err := deps.FindAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !found || account.Deleted {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventChangePwd, audit.StatusAccountNotExists, accountID); err != nil {
			return "", err
		}
		return audit.StatusAccountNotExists, nil
	}
	if account.Disabled {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventChangePwd, audit.StatusAccountDisabled, accountID); err != nil {
			return "", err
		}
		return audit.StatusAccountDisabled, nil
	}

	ok, err := deps.VerifyPassword(current, account.PasswordHash)
	if err != nil || !ok {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventChangePwd, audit.StatusInvalidPassword, accountID); err != nil {
			return "", err
		}
		return audit.StatusInvalidPassword, nil
	}

	return finishPasswordUpdate(ctx, account, next, audit.EventChangePwd, deps.Metrics.Changed, deps)
}

// RunResetPasswordWithCode replaces an account's password after validating a
// reset code delivered out of band. Used both for forgotten passwords and for
// accounts flagged must-reset.
func RunResetPasswordWithCode(
	ctx context.Context,
	kind, value string,
	channel uint8,
	submitted, next string,
	deps PasswordDeps,
) (string, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.FindAccount == nil || deps.ValidateCode == nil ||
		deps.HashPassword == nil || deps.UpdatePasswordHash == nil || deps.EmitAudit == nil {
		return "", ErrFlowNotReady
	}

	account, found, err := deps.FindAccount(ctx, kind, value)
	if err != nil {
		return "", err
	}
	if !found || account.Deleted {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventResetPwd, audit.StatusAccountNotExists, account.ID); err != nil {
			return "", err
		}
		return audit.StatusAccountNotExists, nil
	}
	if account.Disabled {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventResetPwd, audit.StatusAccountDisabled, account.ID); err != nil {
			return "", err
		}
		return audit.StatusAccountDisabled, nil
	}

	outcome, _, err := deps.ValidateCode(ctx, account.ID, channel, submitted)
	if err != nil {
		return "", err
	}
	if status, failed := codeFailureStatus(outcome); failed {
		deps.MetricInc(deps.Metrics.Failure)
		if err := deps.EmitAudit(audit.EventResetPwd, status, account.ID); err != nil {
			return "", err
		}
		return status, nil
	}

	return finishPasswordUpdate(ctx, account, next, audit.EventResetPwd, deps.Metrics.Reset, deps)
}

func finishPasswordUpdate(
	ctx context.Context,
	account AccountRecord,
	next, eventType string,
	okMetric int,
	deps PasswordDeps,
) (string, error) {
	hash, err := deps.HashPassword(next)
	if err != nil {
		return "", err
	}
	if err := deps.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return "", err
	}
	if account.MustResetPassword && deps.ClearMustReset != nil {
		if err := deps.ClearMustReset(ctx, account.ID); err != nil {
			return "", err
		}
	}
	// A password change invalidates sessions the holder of the old password
	// might still own.
	if deps.RevokeOtherSessions != nil {
		if err := deps.RevokeOtherSessions(ctx, account.ID); err != nil {
			return "", err
		}
	}

	if err := deps.EmitAudit(eventType, audit.StatusOK, account.ID); err != nil {
		return "", err
	}
	deps.MetricInc(okMetric)
	return audit.StatusOK, nil
}
