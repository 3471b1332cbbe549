// Package limiters implements Redis-backed rate limiting for code issuance.
package limiters
