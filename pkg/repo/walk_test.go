package repo

import (
	"testing"

	"github.com/nlowell/grit/pkg/object"
)

// graphRepo returns a fresh repo with an empty tree stored, for building
// commit graphs directly through CreateCommit.
func graphRepo(t *testing.T) (*Repo, object.Hash) {
	t.Helper()
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	tree, err := r.BuildTree(&Staging{Entries: map[string]*StagingEntry{}})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return r, tree
}

func makeCommit(t *testing.T, r *Repo, tree object.Hash, parents []object.Hash, message string, ts int64) object.Hash {
	t.Helper()
	h, err := r.CreateCommit(tree, parents, message, "alice", ts)
	if err != nil {
		t.Fatalf("CreateCommit %q: %v", message, err)
	}
	return h
}

func TestAncestors_LinearChainNewestFirst(t *testing.T) {
	r, tree := graphRepo(t)

	c1 := makeCommit(t, r, tree, nil, "c1", 100)
	c2 := makeCommit(t, r, tree, []object.Hash{c1}, "c2", 200)
	c3 := makeCommit(t, r, tree, []object.Hash{c2}, "c3", 300)

	got, err := r.AncestorHashes(c3)
	if err != nil {
		t.Fatalf("AncestorHashes: %v", err)
	}
	want := []object.Hash{c3, c2, c1}
	if len(got) != len(want) {
		t.Fatalf("walk visited %d commits, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAncestors_MergeVisitsSharedAncestorOnce(t *testing.T) {
	r, tree := graphRepo(t)

	root := makeCommit(t, r, tree, nil, "root", 100)
	left := makeCommit(t, r, tree, []object.Hash{root}, "left", 200)
	right := makeCommit(t, r, tree, []object.Hash{root}, "right", 210)
	merge := makeCommit(t, r, tree, []object.Hash{left, right}, "merge", 300)

	got, err := r.AncestorHashes(merge)
	if err != nil {
		t.Fatalf("AncestorHashes: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("walk visited %d commits, want 4 (shared root visited once): %v", len(got), got)
	}

	seen := make(map[object.Hash]int)
	for _, h := range got {
		seen[h]++
	}
	for _, h := range []object.Hash{merge, left, right, root} {
		if seen[h] != 1 {
			t.Fatalf("commit %s visited %d times, want 1", h, seen[h])
		}
	}

	// Timestamp ordering: merge first, root last.
	if got[0] != merge {
		t.Fatalf("walk[0] = %s, want merge %s", got[0], merge)
	}
	if got[3] != root {
		t.Fatalf("walk[3] = %s, want root %s", got[3], root)
	}
	if got[1] != right || got[2] != left {
		t.Fatalf("middle of walk = [%s %s], want [right left] = [%s %s]", got[1], got[2], right, left)
	}
}

func TestAncestors_NextExhausted(t *testing.T) {
	r, tree := graphRepo(t)
	c1 := makeCommit(t, r, tree, nil, "c1", 100)

	walk := r.Ancestors(c1)
	h, c, err := walk.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if h != c1 || c == nil {
		t.Fatalf("Next = (%s, %v), want (%s, commit)", h, c, c1)
	}

	h, c, err = walk.Next()
	if err != nil {
		t.Fatalf("Next after exhaustion: %v", err)
	}
	if h != "" || c != nil {
		t.Fatalf("exhausted Next = (%s, %v), want empty", h, c)
	}
}

func TestIsAncestor(t *testing.T) {
	r, tree := graphRepo(t)

	c1 := makeCommit(t, r, tree, nil, "c1", 100)
	c2 := makeCommit(t, r, tree, []object.Hash{c1}, "c2", 200)
	side := makeCommit(t, r, tree, []object.Hash{c1}, "side", 150)

	cases := []struct {
		name       string
		anc, desc  object.Hash
		want       bool
	}{
		{"direct parent", c1, c2, true},
		{"self", c2, c2, true},
		{"reversed", c2, c1, false},
		{"siblings", side, c2, false},
	}
	for _, tc := range cases {
		got, err := r.IsAncestor(tc.anc, tc.desc)
		if err != nil {
			t.Fatalf("%s: IsAncestor: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: IsAncestor = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAncestors_PreEpochTimestampsKeepOrder(t *testing.T) {
	r, tree := graphRepo(t)

	root := makeCommit(t, r, tree, nil, "root", -500)
	old := makeCommit(t, r, tree, []object.Hash{root}, "old", -100)
	recent := makeCommit(t, r, tree, []object.Hash{root}, "recent", 100)
	merge := makeCommit(t, r, tree, []object.Hash{old, recent}, "merge", 200)

	got, err := r.AncestorHashes(merge)
	if err != nil {
		t.Fatalf("AncestorHashes: %v", err)
	}
	want := []object.Hash{merge, recent, old, root}
	if len(got) != len(want) {
		t.Fatalf("walk visited %d commits, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
