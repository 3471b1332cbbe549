package permission

import (
	"errors"
	"testing"
)

func TestSpecificNormalizes(t *testing.T) {
	cases := map[string]string{
		"Order.Read":   "order.read",
		"  USER.LIST ": "user.list",
		"already":      "already",
	}
	for in, want := range cases {
		if got := Specific(in).String(); got != want {
			t.Errorf("Specific(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpecificStarIsWildcard(t *testing.T) {
	if !Specific("*").IsWildcard() {
		t.Fatal("Specific(\"*\") is not the wildcard")
	}
	if !Specific(" * ").Equal(Wildcard()) {
		t.Fatal("trimmed star not equal to Wildcard()")
	}
}

func TestParseRejectsBlank(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		if _, err := Parse(raw); !errors.Is(err, ErrEmptyCode) {
			t.Errorf("Parse(%q) err = %v, want ErrEmptyCode", raw, err)
		}
	}
}

func TestSetWildcardGrantsAll(t *testing.T) {
	s := NewSet(Specific("order.read"), Wildcard())

	if !s.HasWildcard() {
		t.Fatal("wildcard lost")
	}
	if !s.Contains(Specific("never.added")) {
		t.Fatal("wildcard set must contain any specific code")
	}
	if !s.ContainsAny([]string{"also.never.added"}) {
		t.Fatal("ContainsAny must succeed with wildcard")
	}
	if s.ContainsAny(nil) {
		t.Fatal("ContainsAny(nil) must be false even with wildcard")
	}
	// The wildcard is carried, never enumerated.
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 specific code", s.Len())
	}
}

func TestSetContainsAnyCaseInsensitive(t *testing.T) {
	s := NewSet(Specific("Order.Read"))

	if !s.ContainsAny([]string{"ORDER.READ"}) {
		t.Fatal("case-insensitive lookup failed")
	}
	if s.ContainsAny([]string{"", "  ", "other.code"}) {
		t.Fatal("blank and unknown codes matched")
	}
}

func TestSetUnion(t *testing.T) {
	a := NewSet(Specific("a"))
	b := NewSet(Specific("b"), Wildcard())

	a.Union(b)
	if !a.Contains(Specific("b")) || !a.HasWildcard() {
		t.Fatalf("union missing members: %v wildcard=%v", a.Codes(), a.HasWildcard())
	}
}

func TestSetCodesSorted(t *testing.T) {
	s := NewSet(Specific("c"), Specific("a"), Specific("b"))
	codes := s.Codes()
	if len(codes) != 3 || codes[0] != "a" || codes[1] != "b" || codes[2] != "c" {
		t.Fatalf("Codes() = %v, want [a b c]", codes)
	}
}
