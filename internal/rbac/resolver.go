package rbac

import (
	"context"

	"github.com/authcore-dev/authcore/permission"
)

// PermissionRecord is one grantable permission within an application.
type PermissionRecord struct {
	ID            string
	Code          string
	ApplicationID string
}

// RoleRecord is a role bound to an account. An empty OrgScopeID makes the
// role global; otherwise the role applies only when its scope node is the
// account's org placement or an ancestor of it.
type RoleRecord struct {
	ID          string
	Name        string
	Code        string
	OrgScopeID  string
	Permissions []PermissionRecord
}

// Directory is the live view of role and organization bindings, owned by
// the excluded admin CRUD layer. Reads must reflect current state; the
// resolver never caches across calls because admins mutate bindings
// concurrently with authorization checks.
type Directory interface {
	// RolesForAccount returns every role currently bound to the account.
	RolesForAccount(ctx context.Context, accountID string) ([]RoleRecord, error)
	// OrgPlacement returns the account's materialized ancestor path,
	// ordered from its own org node up to the root, inclusive. Accounts
	// without a placement return an empty path.
	OrgPlacement(ctx context.Context, accountID string) ([]string, error)
}

// Resolver computes effective permissions from current bindings.
type Resolver struct {
	directory Directory
}

// NewResolver creates a [Resolver].
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// EffectivePermissions returns the union of permission codes from every
// applicable role, filtered to the application. The wildcard member is
// carried in the set, never enumerated.
func (r *Resolver) EffectivePermissions(ctx context.Context, accountID, applicationID string) (*permission.Set, error) {
	roles, err := r.directory.RolesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var placement map[string]struct{}
	result := permission.NewSet()

	for _, role := range roles {
		if role.OrgScopeID != "" {
			if placement == nil {
				path, err := r.directory.OrgPlacement(ctx, accountID)
				if err != nil {
					return nil, err
				}
				placement = make(map[string]struct{}, len(path))
				for _, id := range path {
					placement[id] = struct{}{}
				}
			}
			if _, applicable := placement[role.OrgScopeID]; !applicable {
				continue
			}
		}

		for _, perm := range role.Permissions {
			if applicationID != "" && perm.ApplicationID != applicationID {
				continue
			}
			code, err := permission.Parse(perm.Code)
			if err != nil {
				continue
			}
			result.Add(code)
		}
	}
	return result, nil
}

// HasAny reports whether the account holds at least one of the required
// codes (case-insensitive) or the wildcard within the application.
func (r *Resolver) HasAny(ctx context.Context, accountID, applicationID string, required []string) (bool, error) {
	if len(required) == 0 {
		return false, nil
	}
	effective, err := r.EffectivePermissions(ctx, accountID, applicationID)
	if err != nil {
		return false, err
	}
	return effective.ContainsAny(required), nil
}
