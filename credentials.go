package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/password"
)

// CredentialValidator resolves accounts by identifier and checks passwords
// under the lockout policy. It is pure with respect to the audit log: it
// reads failure history but never writes entries; the calling flow owns the
// audit contract.
type CredentialValidator struct {
	provider AccountProvider
	hasher   *password.Hasher
	trail    *audit.Trail
}

// NewCredentialValidator creates a [CredentialValidator].
func NewCredentialValidator(provider AccountProvider, hasher *password.Hasher, trail *audit.Trail) *CredentialValidator {
	return &CredentialValidator{provider: provider, hasher: hasher, trail: trail}
}

// FindAccount resolves exactly one identifier to an account. A nil account
// with a nil error means no match.
func (v *CredentialValidator) FindAccount(ctx context.Context, kind IdentifierKind, value string) (*Account, error) {
	if v.provider == nil {
		return nil, ErrEngineNotReady
	}
	switch kind {
	case IdentifierUsername:
		return v.provider.AccountByUsername(ctx, value)
	case IdentifierMobile:
		return v.provider.AccountByMobile(ctx, value)
	case IdentifierEmail:
		return v.provider.AccountByEmail(ctx, value)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentifier, kind)
	}
}

// RecentFailures counts failed-password sign-in entries under the combined
// lockout bounds: within the rolling window AND since the last successful
// sign-in. A successful sign-in therefore resets the count by construction,
// with no counter state to clear.
func (v *CredentialValidator) RecentFailures(ctx context.Context, accountID string, window time.Duration, now time.Time) (int, error) {
	if v.trail == nil {
		return 0, ErrEngineNotReady
	}
	if window <= 0 {
		return 0, nil
	}

	since := now.Add(-window)
	lastOK, found, err := v.trail.LastAt(ctx, accountID, audit.EventSignIn, audit.StatusOK)
	if err != nil {
		return 0, err
	}
	if found && lastOK.After(since) {
		since = lastOK
	}

	return v.trail.CountSince(ctx, accountID, audit.EventSignIn, audit.StatusInvalidPassword, since)
}

// VerifyPassword checks a password against a stored hash. An empty hash
// never verifies (code-only accounts have no password).
func (v *CredentialValidator) VerifyPassword(pass, hash string) (bool, error) {
	if v.hasher == nil {
		return false, ErrEngineNotReady
	}
	if hash == "" {
		return false, nil
	}
	return v.hasher.Verify(pass, hash)
}
