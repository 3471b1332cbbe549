// Package internal holds shared primitives for the engine that are not part
// of the public API surface.
package internal
