// Package policy implements the typed, cached login policy store: documented
// defaults, string persistence behind a key-value contract, and synchronous
// cache invalidation on writes.
package policy
