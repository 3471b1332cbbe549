package authcore

import (
	"context"
	"fmt"

	"github.com/authcore-dev/authcore/internal"
	"github.com/authcore-dev/authcore/internal/flows"
	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/stores"
)

func (e *Engine) verificationDeps() flows.VerificationDeps {
	return flows.VerificationDeps{
		Now:          e.timeNow,
		CodeDigits:   e.config.Verification.CodeDigits,
		GenerateCode: internal.NumericCode,
		HashCode:     internal.HashSecret,

		DemoCode:      e.config.Verification.DemoCode,
		IsDemoSubject: e.isDemoSubject,

		AllowSend: func(ctx context.Context, subject string, channel, p uint8, limit limiters.SendLimit) (bool, error) {
			return e.sendLimiter.Allow(ctx, subject, channel, p, limit)
		},
		PutRecord:      e.verificationStore.Put,
		ValidateRecord: e.verificationStore.Validate,

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Metrics: flows.VerificationMetrics{
			Issued:           int(MetricCodeIssued),
			IssueRateLimited: int(MetricCodeIssueRateLimited),
			Consumed:         int(MetricCodeConsumed),
			Incorrect:        int(MetricCodeIncorrect),
			AttemptsExceeded: int(MetricCodeAttemptsExceeded),
			Expired:          int(MetricCodeExpired),
			NoRecord:         int(MetricCodeMissing),
		},
	}
}

func (e *Engine) isDemoSubject(subject string) bool {
	for _, s := range e.config.Verification.DemoSubjects {
		if s == subject {
			return true
		}
	}
	return false
}

// IssueCode issues a verification code to the subject for the channel and
// purpose, counting it against the policy's send window. The subject is the
// account ID for existing accounts; for sign-up (no account yet) it is the
// raw identifier value the code is delivered to.
//
// The generated code is returned to the caller for delivery; the engine
// never sends anything itself.
func (e *Engine) IssueCode(ctx context.Context, subject string, channel Channel, purpose Purpose) (*IssueCodeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !channel.valid() {
		return nil, ErrInvalidChannel
	}
	if !purpose.valid() {
		return nil, ErrInvalidPurpose
	}

	pol, err := e.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if !channelAllowed(pol.channels(purpose), channel) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotAllowed, channel)
	}

	issue, err := flows.RunIssueCode(
		ctx,
		subject,
		uint8(channel), uint8(purpose),
		pol.codeTTL(purpose),
		pol.sendLimit(purpose),
		e.verificationDeps(),
	)
	if err != nil {
		return nil, err
	}
	return &IssueCodeResult{
		Code:        issue.Code,
		ExpiresAt:   issue.ExpiresAt,
		RateLimited: issue.RateLimited,
	}, nil
}

// IssueSignUpCode issues a sign-up code to a raw identifier value after
// validating its format. The identifier kind must match the channel (codes
// go to the identifier they will create).
func (e *Engine) IssueSignUpCode(ctx context.Context, channel Channel, recipient string) (*IssueCodeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	kind := channelIdentifierKind(channel)
	if kind == "" {
		return nil, ErrInvalidChannel
	}
	if !e.identifiers.valid(kind, recipient) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIdentifier, kind)
	}
	return e.IssueCode(ctx, recipient, channel, PurposeSignUp)
}

// IssueSignInCode resolves the account behind the identifier and issues a
// sign-in code keyed to the account ID. An unknown identifier returns an
// empty result indistinguishable from a successful issue, so callers cannot
// probe for account existence.
func (e *Engine) IssueSignInCode(ctx context.Context, kind IdentifierKind, value string, channel Channel) (*IssueCodeResult, error) {
	return e.issueAccountCode(ctx, kind, value, channel, PurposeSignIn)
}

// IssueResetCode issues a password-reset code to an existing account's
// identifier. Shares the sign-in policy knobs.
func (e *Engine) IssueResetCode(ctx context.Context, kind IdentifierKind, value string, channel Channel) (*IssueCodeResult, error) {
	return e.issueAccountCode(ctx, kind, value, channel, PurposeResetPassword)
}

func (e *Engine) issueAccountCode(ctx context.Context, kind IdentifierKind, value string, channel Channel, purpose Purpose) (*IssueCodeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.identifiers.valid(kind, value) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIdentifier, kind)
	}

	account, err := e.credentials.FindAccount(ctx, kind, value)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Deleted {
		// No observable difference from a successful issue: the code simply
		// never arrives. Prevents probing for account existence.
		e.warnf("issue code: no account for %s identifier", kind)
		return &IssueCodeResult{ExpiresAt: e.timeNow()}, nil
	}

	return e.IssueCode(ctx, account.ID, channel, purpose)
}

// ValidateCode runs one validation attempt for the subject, channel, and
// purpose. Every expected state maps to a [Status]; only storage failures
// return errors. A consumed record never validates again.
func (e *Engine) ValidateCode(ctx context.Context, subject string, channel Channel, purpose Purpose, submitted string) (*ValidateCodeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !channel.valid() {
		return nil, ErrInvalidChannel
	}
	if !purpose.valid() {
		return nil, ErrInvalidPurpose
	}

	pol, err := e.Policy(ctx)
	if err != nil {
		return nil, err
	}

	outcome, attempts, err := flows.RunValidateCode(
		ctx,
		subject,
		uint8(channel), uint8(purpose),
		submitted,
		pol.codeMaxAttempts(purpose),
		e.verificationDeps(),
	)
	if err != nil {
		return nil, err
	}
	return &ValidateCodeResult{
		Status:   validateStatus(outcome),
		Attempts: int(attempts),
	}, nil
}

func validateStatus(outcome stores.ValidateOutcome) Status {
	switch outcome {
	case stores.ValidateOK:
		return StatusOK
	case stores.ValidateMismatch:
		return StatusCodeIncorrect
	case stores.ValidateAttemptsExceeded:
		return StatusCodeAttemptsExceeded
	case stores.ValidateExpired:
		return StatusCodeExpired
	default:
		return StatusInvalidCode
	}
}

// validateCodeFunc adapts ValidateCode for the flow dependency shape.
func (e *Engine) validateCodeFunc(purpose Purpose) func(context.Context, string, uint8, string) (stores.ValidateOutcome, uint16, error) {
	return func(ctx context.Context, subject string, channel uint8, submitted string) (stores.ValidateOutcome, uint16, error) {
		pol, err := e.Policy(ctx)
		if err != nil {
			return stores.ValidateNoRecord, 0, err
		}
		return flows.RunValidateCode(
			ctx,
			subject,
			channel, uint8(purpose),
			submitted,
			pol.codeMaxAttempts(purpose),
			e.verificationDeps(),
		)
	}
}

func channelIdentifierKind(channel Channel) IdentifierKind {
	switch channel {
	case ChannelSMS:
		return IdentifierMobile
	case ChannelEmail:
		return IdentifierEmail
	default:
		return ""
	}
}
