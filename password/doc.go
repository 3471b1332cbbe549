// Package password provides argon2id password hashing with PHC-encoded
// hashes and an upgrade check for parameter drift.
package password
