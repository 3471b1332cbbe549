// Package jwt wraps github.com/golang-jwt/jwt/v5 with the session token
// contract used by the engine: `sub` is the account ID, `jti` is the
// persisted token record ID, and `exp` is optional — a zero TTL mints a
// token whose lifetime is bounded only by server-side revocation.
package jwt
