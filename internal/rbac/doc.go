// Package rbac resolves an account's effective permissions from its role
// bindings and hierarchical org placement. Resolution is always computed
// from live directory reads.
package rbac
