package authcore

import (
	"context"

	"github.com/authcore-dev/authcore/permission"
)

// EffectivePermissions resolves the account's permission set within an
// application: the union of permissions from every applicable role, where a
// role applies when it is global or its organization scope lies on the
// account's ancestor path. The set may carry the wildcard; check
// [permission.Set.HasWildcard] rather than enumerating.
//
// Bindings are read live from the directory on every call. There is no
// cross-request cache: an admin revoking a role must take effect on the next
// check.
func (e *Engine) EffectivePermissions(ctx context.Context, accountID, applicationID string) (*permission.Set, error) {
	if e == nil || e.resolver == nil {
		return nil, ErrEngineNotReady
	}
	return e.resolver.EffectivePermissions(ctx, accountID, applicationID)
}

// HasAnyPermission reports whether the account holds at least one of the
// required codes (case-insensitive) or the wildcard within the application.
// An empty required list is never satisfied.
func (e *Engine) HasAnyPermission(ctx context.Context, accountID, applicationID string, required []string) (bool, error) {
	if e == nil || e.resolver == nil {
		return false, ErrEngineNotReady
	}
	return e.resolver.HasAny(ctx, accountID, applicationID, required)
}
