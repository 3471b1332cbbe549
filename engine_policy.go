package authcore

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/policy"
)

// LoginPolicy is the typed view of all login policy settings. Zero values
// for the *MaxAttempts and *SendMax fields disable the corresponding limit;
// a zero SessionTTL means session-scoped tokens with no cryptographic
// expiry.
type LoginPolicy struct {
	SignUpChannels        []string
	SignUpCodeTTL         time.Duration
	SignUpCodeMaxAttempts int
	SignUpSendWindow      time.Duration
	SignUpSendMax         int

	SignInChannels        []string
	SignInCodeTTL         time.Duration
	SignInCodeMaxAttempts int
	SignInSendWindow      time.Duration
	SignInSendMax         int

	PasswordIdentifiers []string
	LockoutWindow       time.Duration
	LockoutMaxAttempts  int

	SessionTTL time.Duration
}

func fromPolicy(p policy.Policy) LoginPolicy {
	return LoginPolicy{
		SignUpChannels:        p.SignUpChannels,
		SignUpCodeTTL:         p.SignUpCodeTTL,
		SignUpCodeMaxAttempts: p.SignUpCodeMaxAttempts,
		SignUpSendWindow:      p.SignUpSendWindow,
		SignUpSendMax:         p.SignUpSendMax,

		SignInChannels:        p.SignInChannels,
		SignInCodeTTL:         p.SignInCodeTTL,
		SignInCodeMaxAttempts: p.SignInCodeMaxAttempts,
		SignInSendWindow:      p.SignInSendWindow,
		SignInSendMax:         p.SignInSendMax,

		PasswordIdentifiers: p.PasswordIdentifiers,
		LockoutWindow:       p.LockoutWindow,
		LockoutMaxAttempts:  p.LockoutMaxAttempts,

		SessionTTL: p.SessionTTL,
	}
}

// Per-purpose policy accessors. Reset codes run under the sign-in knobs;
// they share the delivery path and abuse profile.

func (p LoginPolicy) channels(purpose Purpose) []string {
	if purpose == PurposeSignUp {
		return p.SignUpChannels
	}
	return p.SignInChannels
}

func (p LoginPolicy) codeTTL(purpose Purpose) time.Duration {
	if purpose == PurposeSignUp {
		return p.SignUpCodeTTL
	}
	return p.SignInCodeTTL
}

func (p LoginPolicy) codeMaxAttempts(purpose Purpose) int {
	if purpose == PurposeSignUp {
		return p.SignUpCodeMaxAttempts
	}
	return p.SignInCodeMaxAttempts
}

func (p LoginPolicy) sendLimit(purpose Purpose) limiters.SendLimit {
	if purpose == PurposeSignUp {
		return limiters.SendLimit{Window: p.SignUpSendWindow, Max: p.SignUpSendMax}
	}
	return limiters.SendLimit{Window: p.SignInSendWindow, Max: p.SignInSendMax}
}

// Policy returns the current typed login policy.
func (e *Engine) Policy(ctx context.Context) (LoginPolicy, error) {
	if e == nil || e.policies == nil {
		return LoginPolicy{}, ErrEngineNotReady
	}
	p, err := e.policies.Policy(ctx)
	if err != nil {
		return LoginPolicy{}, err
	}
	return fromPolicy(p), nil
}

// PolicyValue returns the effective string value for one policy key
// (persisted or default). Unknown keys return [ErrUnknownPolicyKey].
func (e *Engine) PolicyValue(ctx context.Context, key string) (string, error) {
	if e == nil || e.policies == nil {
		return "", ErrEngineNotReady
	}
	return e.policies.Get(ctx, policy.Key(key))
}

// PolicyValues returns every policy key with its effective string value.
func (e *Engine) PolicyValues(ctx context.Context) (map[string]string, error) {
	if e == nil || e.policies == nil {
		return nil, ErrEngineNotReady
	}
	all, err := e.policies.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		out[string(k)] = v
	}
	return out, nil
}

// PatchPolicy validates and persists the given policy values, then drops the
// in-process cache so the next read observes them. Unknown keys and
// malformed values reject the whole patch.
func (e *Engine) PatchPolicy(ctx context.Context, values map[string]string) error {
	if e == nil || e.policies == nil {
		return ErrEngineNotReady
	}
	keyed := make(map[policy.Key]string, len(values))
	for k, v := range values {
		keyed[policy.Key(k)] = v
	}
	return e.policies.Patch(ctx, keyed)
}

// InvalidatePolicyCache drops the in-process policy cache. Call it when the
// settings backend is mutated out of band.
func (e *Engine) InvalidatePolicyCache() {
	if e == nil || e.policies == nil {
		return
	}
	e.policies.Invalidate()
}
