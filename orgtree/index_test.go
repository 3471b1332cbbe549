package orgtree

import (
	"errors"
	"testing"
)

// Standard three-level chain: org type -> enterprise -> departments.
func testNodes() []Node {
	return []Node{
		{ID: "type-1"},
		{ID: "ent-1", ParentID: "type-1"},
		{ID: "dept-1", ParentID: "ent-1"},
		{ID: "dept-2", ParentID: "ent-1"},
	}
}

func TestAncestorPath(t *testing.T) {
	ix, err := NewIndex(testNodes())
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	path, err := ix.AncestorPath("dept-1")
	if err != nil {
		t.Fatalf("ancestor path: %v", err)
	}
	want := []string{"dept-1", "ent-1", "type-1"}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}

func TestAncestorPathReturnsCopy(t *testing.T) {
	ix, err := NewIndex(testNodes())
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	path, _ := ix.AncestorPath("dept-1")
	path[0] = "mutated"

	again, _ := ix.AncestorPath("dept-1")
	if again[0] != "dept-1" {
		t.Fatal("internal path mutated through returned slice")
	}
}

func TestIsAncestorOrSelf(t *testing.T) {
	ix, err := NewIndex(testNodes())
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	cases := []struct {
		scope, node string
		want        bool
	}{
		{"dept-1", "dept-1", true},
		{"ent-1", "dept-1", true},
		{"type-1", "dept-1", true},
		{"dept-2", "dept-1", false},
		{"dept-1", "ent-1", false}, // descendant, not ancestor
	}
	for _, c := range cases {
		got, err := ix.IsAncestorOrSelf(c.scope, c.node)
		if err != nil {
			t.Fatalf("IsAncestorOrSelf(%s, %s): %v", c.scope, c.node, err)
		}
		if got != c.want {
			t.Errorf("IsAncestorOrSelf(%s, %s) = %v, want %v", c.scope, c.node, got, c.want)
		}
	}

	if _, err := ix.IsAncestorOrSelf("ent-1", "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("unknown node err = %v, want ErrNodeNotFound", err)
	}
}

func TestNewIndexRejectsCycle(t *testing.T) {
	_, err := NewIndex([]Node{
		{ID: "a", ParentID: "b"},
		{ID: "b", ParentID: "a"},
	})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("err = %v, want ErrCycle", err)
	}
}

func TestNewIndexRejectsMissingParent(t *testing.T) {
	_, err := NewIndex([]Node{{ID: "a", ParentID: "ghost"}})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestNewIndexRejectsDuplicates(t *testing.T) {
	_, err := NewIndex([]Node{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("duplicate node accepted")
	}
}
