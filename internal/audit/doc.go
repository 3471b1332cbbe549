// Package audit implements the immutable security event log: the event
// model, pluggable sinks with an async dispatcher, and the synchronous
// Redis-backed trail that lockout counting queries.
package audit
