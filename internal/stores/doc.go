// Package stores contains the Redis-backed record stores: one-time
// verification records and bearer token records. All counting-then-mutating
// transitions run inside Redis transactions so parallel engine instances
// cannot race past a budget.
package stores
