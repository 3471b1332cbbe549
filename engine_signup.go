package authcore

import (
	"context"
	"fmt"

	"github.com/authcore-dev/authcore/internal/flows"
)

// SignUpWithCode creates an account after validating a sign-up code issued
// to the identifier value. Password is optional; an account created without
// one can only sign in by code until a password is set. On success the first
// session is minted and the sign-up audited.
func (e *Engine) SignUpWithCode(ctx context.Context, kind IdentifierKind, value string, channel Channel, code, pass string) (*SignUpResult, error) {
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
	if !channelAllowed(pol.SignUpChannels, channel) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotAllowed, channel)
	}

	deps := flows.SignUpDeps{
		Now:          e.timeNow,
		ValidateCode: e.validateCodeFunc(PurposeSignUp),
		CreateAccount: func(ctx context.Context, kind, value, passwordHash string) (flows.AccountRecord, error) {
			account := &Account{PasswordHash: passwordHash}
			switch IdentifierKind(kind) {
			case IdentifierUsername:
				account.Username = value
			case IdentifierMobile:
				account.Mobile = value
			case IdentifierEmail:
				account.Email = value
			}
			id, err := e.provider.CreateAccount(ctx, account)
			if err != nil {
				return flows.AccountRecord{}, err
			}
			account.ID = id
			record, _ := accountRecord(account)
			return record, nil
		},
		HashPassword:  e.hasher.Hash,
		CreateSession: e.createSession,

		EmitAudit: e.auditEmitter(ctx),
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Metrics: flows.SignUpMetrics{
			Success: int(MetricSignUpSuccess),
			Failure: int(MetricSignUpFailure),
		},
	}

	result, err := flows.RunSignUpWithCode(ctx, string(kind), value, uint8(channel), code, pass, deps)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{
		Status:      Status(result.Status),
		AccountID:   result.AccountID,
		AccessToken: result.AccessToken,
	}, nil
}
