package authcore

import (
	"context"
	"fmt"

	"github.com/authcore-dev/authcore/internal/flows"
)

func (e *Engine) passwordDeps(ctx context.Context) flows.PasswordDeps {
	return flows.PasswordDeps{
		Now:             e.timeNow,
		FindAccountByID: e.findAccountByIDFunc(),
		FindAccount:     e.findAccountFunc(),

		VerifyPassword: e.credentials.VerifyPassword,
		HashPassword:   e.hasher.Hash,
		ValidateCode:   e.validateCodeFunc(PurposeResetPassword),

		UpdatePasswordHash: e.provider.UpdatePasswordHash,
		ClearMustReset: func(ctx context.Context, accountID string) error {
			return e.provider.SetMustResetPassword(ctx, accountID, false)
		},

		EmitAudit: e.auditEmitter(ctx),
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Metrics: flows.PasswordMetrics{
			Changed: int(MetricPasswordChanged),
			Reset:   int(MetricPasswordReset),
			Failure: int(MetricPasswordFailure),
		},
	}
}

// ChangePassword replaces an account's password after verifying the current
// one. Addressed by account ID because it runs behind an authenticated
// session. The outcome is audited as a ChangePwd event either way.
func (e *Engine) ChangePassword(ctx context.Context, accountID, current, next string) (Status, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if accountID == "" {
		return "", ErrInvalidIdentifier
	}
	status, err := flows.RunChangePassword(ctx, accountID, current, next, e.passwordDeps(ctx))
	if err != nil {
		return "", err
	}
	return Status(status), nil
}

// ResetPasswordWithCode replaces an account's password after validating a
// reset code issued to the identifier. Clears the must-reset flag on
// success and audits the outcome as a ResetPwd event.
func (e *Engine) ResetPasswordWithCode(ctx context.Context, kind IdentifierKind, value string, channel Channel, code, next string) (Status, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if !channel.valid() {
		return "", ErrInvalidChannel
	}
	if !e.identifiers.valid(kind, value) {
		return "", fmt.Errorf("%w: %s", ErrInvalidIdentifier, kind)
	}
	status, err := flows.RunResetPasswordWithCode(ctx, string(kind), value, uint8(channel), code, next, e.passwordDeps(ctx))
	if err != nil {
		return "", err
	}
	return Status(status), nil
}
