// Package permission provides the permission-code primitives used by the
// authorization resolver: a closed wildcard-or-specific [Code] type and a
// case-insensitive [Set].
//
// The reserved "*" code is modeled as a distinct variant instead of a string
// comparison so the wildcard escape hatch cannot leak into code enumeration.
package permission
