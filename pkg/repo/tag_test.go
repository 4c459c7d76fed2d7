package repo

import (
	"testing"
)

func TestCreateTag_Lightweight(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("one\n"))
	h, err := r.Commit("initial", "alice")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.CreateTag("v1.0.0", h, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := r.ResolveTag("v1.0.0")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if got != h {
		t.Fatalf("ResolveTag = %s, want %s", got, h)
	}

	// Re-creating without force fails; with force succeeds.
	if err := r.CreateTag("v1.0.0", h, false); err == nil {
		t.Fatal("duplicate CreateTag without force should fail")
	}
	if err := r.CreateTag("v1.0.0", h, true); err != nil {
		t.Fatalf("CreateTag force: %v", err)
	}
}

func TestCreateAnnotatedTag_PeelsToCommit(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("one\n"))
	h, err := r.Commit("initial", "alice")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tagHash, err := r.CreateAnnotatedTag("v2.0.0", h, "alice", "release two", false)
	if err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}
	if tagHash == h {
		t.Fatal("annotated tag hash should differ from the commit hash")
	}

	tag, err := r.Store.ReadTag(tagHash)
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if tag.TargetHash != h {
		t.Fatalf("tag target = %s, want %s", tag.TargetHash, h)
	}
	if tag.Message != "release two" {
		t.Fatalf("tag message = %q, want %q", tag.Message, "release two")
	}

	// The unpeeled ref points at the tag object; resolving peels it.
	unpeeled, err := r.ListTagsWithHashes()
	if err != nil {
		t.Fatalf("ListTagsWithHashes: %v", err)
	}
	if unpeeled["v2.0.0"] != tagHash {
		t.Fatalf("ref target = %s, want tag object %s", unpeeled["v2.0.0"], tagHash)
	}
	peeled, err := r.ResolveTag("v2.0.0")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if peeled != h {
		t.Fatalf("peeled = %s, want %s", peeled, h)
	}
}

func TestCreateAnnotatedTag_RequiresMessage(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("one\n"))
	h, err := r.Commit("initial", "alice")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := r.CreateAnnotatedTag("bad", h, "alice", "   ", false); err == nil {
		t.Fatal("annotated tag without a message should fail")
	}
}

func TestDeleteTag(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("one\n"))
	h, err := r.Commit("initial", "alice")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.CreateTag("gone", h, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := r.DeleteTag("gone"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if err := r.DeleteTag("gone"); err == nil {
		t.Fatal("deleting a missing tag should fail")
	}
}

func TestListTags_Sorted(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("one\n"))
	h, err := r.Commit("initial", "alice")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for _, name := range []string{"v2", "v1", "beta/rc1"} {
		if err := r.CreateTag(name, h, false); err != nil {
			t.Fatalf("CreateTag %s: %v", name, err)
		}
	}

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	want := []string{"beta/rc1", "v1", "v2"}
	if len(tags) != len(want) {
		t.Fatalf("ListTags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestValidateTagName(t *testing.T) {
	bad := []string{"", "/leading", "trailing/", "dot..dot", "has space", "has\ttab"}
	for _, name := range bad {
		if err := validateTagName(name); err == nil {
			t.Errorf("validateTagName(%q) = nil, want error", name)
		}
	}
	good := []string{"v1.0.0", "release/2026-08", "rc-1"}
	for _, name := range good {
		if err := validateTagName(name); err != nil {
			t.Errorf("validateTagName(%q) = %v, want nil", name, err)
		}
	}
}
