package permission

import (
	"errors"
	"sort"
	"strings"
)

// WildcardLiteral is the reserved permission code string meaning "grants
// everything within an application".
const WildcardLiteral = "*"

// ErrEmptyCode is returned when a permission code is blank after trimming.
var ErrEmptyCode = errors.New("empty permission code")

// Code is a closed representation of a permission code: either the reserved
// wildcard or a specific code. Specific codes are case-normalized on
// construction so comparisons are case-insensitive everywhere.
type Code struct {
	wildcard bool
	value    string
}

// Wildcard returns the wildcard code.
func Wildcard() Code {
	return Code{wildcard: true}
}

// Specific returns a code for the given value. The value is trimmed and
// lowercased; a literal "*" yields the wildcard code.
func Specific(value string) Code {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == WildcardLiteral {
		return Wildcard()
	}
	return Code{value: value}
}

// Parse converts a raw code string into a [Code]. Blank input is rejected.
func Parse(raw string) (Code, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Code{}, ErrEmptyCode
	}
	return Specific(raw), nil
}

// IsWildcard reports whether c is the reserved wildcard.
func (c Code) IsWildcard() bool {
	return c.wildcard
}

// String returns the canonical string form of the code.
func (c Code) String() string {
	if c.wildcard {
		return WildcardLiteral
	}
	return c.value
}

// Equal reports whether two codes denote the same permission.
func (c Code) Equal(other Code) bool {
	return c.wildcard == other.wildcard && c.value == other.value
}

// Set is a collection of permission codes. The wildcard member is tracked
// separately from specific codes so callers can treat it as "grants
// everything" instead of enumerating it.
type Set struct {
	wildcard bool
	codes    map[string]struct{}
}

// NewSet creates a [Set] containing the given codes.
func NewSet(codes ...Code) *Set {
	s := &Set{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

// Add inserts a code into the set. Empty specific codes are ignored.
func (s *Set) Add(c Code) {
	if c.wildcard {
		s.wildcard = true
		return
	}
	if c.value == "" {
		return
	}
	s.codes[c.value] = struct{}{}
}

// HasWildcard reports whether the set contains the wildcard code.
func (s *Set) HasWildcard() bool {
	return s.wildcard
}

// Contains reports whether the set grants the given code. A set holding the
// wildcard grants every specific code.
func (s *Set) Contains(c Code) bool {
	if s.wildcard {
		return true
	}
	if c.wildcard {
		return false
	}
	_, ok := s.codes[c.value]
	return ok
}

// ContainsAny reports whether the set grants at least one of the raw codes.
// Comparison is case-insensitive; blank entries are skipped.
func (s *Set) ContainsAny(raw []string) bool {
	for _, r := range raw {
		c, err := Parse(r)
		if err != nil {
			continue
		}
		if s.Contains(c) {
			return true
		}
	}
	return false
}

// Len returns the number of specific codes in the set. The wildcard is not
// counted.
func (s *Set) Len() int {
	return len(s.codes)
}

// Codes returns the specific codes in the set, sorted. The wildcard member
// is reported separately by [Set.HasWildcard].
func (s *Set) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for v := range s.codes {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Union merges other into s and returns s.
func (s *Set) Union(other *Set) *Set {
	if other == nil {
		return s
	}
	if other.wildcard {
		s.wildcard = true
	}
	for v := range other.codes {
		s.codes[v] = struct{}{}
	}
	return s
}
