package authcore

import (
	"context"
	"sync"

	"github.com/authcore-dev/authcore/orgtree"
)

// RoleSource serves the roles currently bound to an account. The embedding
// admin layer owns role CRUD; the engine only reads.
type RoleSource interface {
	RolesForAccount(ctx context.Context, accountID string) ([]Role, error)
}

// PlacementFunc resolves an account to its organization node ID. An empty
// ID means the account has no placement.
type PlacementFunc func(ctx context.Context, accountID string) (string, error)

// TreeDirectory implements [Directory] by pairing a role source with an
// [orgtree.Index]: ancestor paths come from the index, so the admin layer
// only has to answer "which node is this account in". The index is swapped
// whole on tree changes; a swap is visible to the next authorization check.
type TreeDirectory struct {
	roles     RoleSource
	placement PlacementFunc

	mu    sync.RWMutex
	index *orgtree.Index
}

// NewTreeDirectory creates a [TreeDirectory].
func NewTreeDirectory(roles RoleSource, index *orgtree.Index, placement PlacementFunc) *TreeDirectory {
	return &TreeDirectory{roles: roles, placement: placement, index: index}
}

// ReplaceIndex installs a rebuilt tree index.
func (d *TreeDirectory) ReplaceIndex(index *orgtree.Index) {
	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
}

// RolesForAccount returns every role currently bound to the account.
func (d *TreeDirectory) RolesForAccount(ctx context.Context, accountID string) ([]Role, error) {
	if d.roles == nil {
		return nil, nil
	}
	return d.roles.RolesForAccount(ctx, accountID)
}

// OrgPlacement returns the account's ancestor path, node to root. Unplaced
// accounts return an empty path.
func (d *TreeDirectory) OrgPlacement(ctx context.Context, accountID string) ([]string, error) {
	if d.placement == nil {
		return nil, nil
	}
	nodeID, err := d.placement(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if nodeID == "" {
		return nil, nil
	}

	d.mu.RLock()
	index := d.index
	d.mu.RUnlock()
	if index == nil {
		return nil, orgtree.ErrNodeNotFound
	}
	return index.AncestorPath(nodeID)
}
