// Package authcore is an embeddable authentication and authorization engine
// for multi-tenant platforms: one-time verification codes, password and code
// sign-in with lockout, revocable bearer sessions, hierarchical permission
// resolution, audit logging, and a cached login policy store.
//
// The engine owns no account data. Accounts, roles, organizations, and
// applications live with the embedding application and reach the engine
// through the [AccountProvider] and [Directory] contracts; Redis backs the
// engine's own state (verification records, token records, rate windows,
// audit trail, policy values).
//
// Construct an engine with the builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithAccountProvider(provider).
//		Build()
//
// Expected states (wrong password, expired code, locked out, disabled
// account, invalid session) are returned as discriminated outcome values;
// only storage and configuration failures propagate as errors.
package authcore
