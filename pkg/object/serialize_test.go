package object

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testHash(seed string) Hash {
	return HashBytes([]byte(seed))
}

func TestMarshalBlob_RoundTrip(t *testing.T) {
	b := &Blob{Data: []byte("hello\x00world\n")}

	got, err := UnmarshalBlob(MarshalBlob(b))
	if err != nil {
		t.Fatalf("UnmarshalBlob: %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("blob round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalBlob_CopiesData(t *testing.T) {
	data := []byte("abc")
	b := &Blob{Data: data}
	out := MarshalBlob(b)
	out[0] = 'x'
	if b.Data[0] != 'a' {
		t.Error("MarshalBlob aliases caller data")
	}
}

func TestMarshalTree_SortedAndDeterministic(t *testing.T) {
	blobA := testHash("a")
	blobB := testHash("b")
	sub := testHash("sub")

	forward := &TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", BlobHash: blobA},
		{Name: "b.txt", BlobHash: blobB, Mode: TreeModeExecutable},
		{Name: "lib", IsDir: true, SubtreeHash: sub},
	}}
	reversed := &TreeObj{Entries: []TreeEntry{
		{Name: "lib", IsDir: true, SubtreeHash: sub},
		{Name: "b.txt", BlobHash: blobB, Mode: TreeModeExecutable},
		{Name: "a.txt", BlobHash: blobA},
	}}

	fwd := MarshalTree(forward)
	rev := MarshalTree(reversed)
	if string(fwd) != string(rev) {
		t.Errorf("tree encoding depends on entry order:\nfwd: %q\nrev: %q", fwd, rev)
	}
	if HashObject(TypeTree, fwd) != HashObject(TypeTree, rev) {
		t.Error("logically identical trees hash differently")
	}

	lines := strings.Split(strings.TrimRight(string(fwd), "\n"), "\n")
	want := []string{
		"a.txt " + TreeModeFile + " " + string(blobA),
		"b.txt " + TreeModeExecutable + " " + string(blobB),
		"lib " + TreeModeDir + " " + string(sub),
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("tree lines mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalTree_RoundTrip(t *testing.T) {
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, BlobHash: testHash("a")},
		{Name: "bin", Mode: TreeModeExecutable, BlobHash: testHash("bin")},
		{Name: "pkg", IsDir: true, Mode: TreeModeDir, SubtreeHash: testHash("pkg")},
	}}

	got, err := UnmarshalTree(MarshalTree(tr))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if diff := cmp.Diff(tr, got); diff != "" {
		t.Errorf("tree round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalTree_Empty(t *testing.T) {
	data := MarshalTree(&TreeObj{})
	if len(data) != 0 {
		t.Fatalf("empty tree encodes to %d bytes, want 0", len(data))
	}

	tr, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree(empty): %v", err)
	}
	if len(tr.Entries) != 0 {
		t.Errorf("empty tree decoded with %d entries", len(tr.Entries))
	}

	// The empty tree has a stable, well-defined hash.
	if HashObject(TypeTree, data) != HashObject(TypeTree, nil) {
		t.Error("empty tree hash is not stable")
	}
}

func TestUnmarshalTree_Malformed(t *testing.T) {
	cases := []string{
		"not-enough-fields\n",
		"name 100644\n",
		"name 999999 " + string(testHash("x")) + "\n",
		"name 100644 nothex\n",
	}
	for _, input := range cases {
		if _, err := UnmarshalTree([]byte(input)); !errors.Is(err, ErrMalformedObject) {
			t.Errorf("UnmarshalTree(%q) = %v, want ErrMalformedObject", input, err)
		}
	}
}

func TestMarshalCommit_RoundTrip(t *testing.T) {
	c := &CommitObj{
		TreeHash:  testHash("tree"),
		Parents:   []Hash{testHash("p1"), testHash("p2")},
		Author:    "Ada Lovelace <ada@example.com>",
		Timestamp: 1700000000,
		Signature: "sshsig-v1:ssh-ed25519:AAAA:BBBB",
		Message:   "merge feature\n\nwith a body\n",
	}

	got, err := UnmarshalCommit(MarshalCommit(c))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("commit round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalCommit_ParentOrderPreserved(t *testing.T) {
	p1, p2 := testHash("p1"), testHash("p2")
	c := &CommitObj{
		TreeHash:  testHash("tree"),
		Parents:   []Hash{p2, p1},
		Author:    "a",
		Timestamp: 1,
	}

	got, err := UnmarshalCommit(MarshalCommit(c))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if got.Parents[0] != p2 || got.Parents[1] != p1 {
		t.Errorf("parent order not preserved: %v", got.Parents)
	}
}

func TestUnmarshalCommit_Malformed(t *testing.T) {
	cases := map[string]string{
		"no separator":  "tree abc",
		"bad timestamp": "tree " + string(testHash("t")) + "\nauthor a\ntimestamp soon\n\nmsg",
		"unknown key":   "tree " + string(testHash("t")) + "\nfrobnicate x\ntimestamp 1\n\nmsg",
		"bad tree hash": "tree zzz\nauthor a\ntimestamp 1\n\nmsg",
	}
	for name, input := range cases {
		if _, err := UnmarshalCommit([]byte(input)); !errors.Is(err, ErrMalformedObject) {
			t.Errorf("%s: UnmarshalCommit = %v, want ErrMalformedObject", name, err)
		}
	}
}

func TestMarshalTag_RoundTrip(t *testing.T) {
	tag := &TagObj{
		TargetHash: testHash("commit"),
		TargetType: TypeCommit,
		Name:       "v1.0.0",
		Tagger:     "Ada Lovelace <ada@example.com>",
		Timestamp:  1700000000,
		Message:    "first release\n",
	}

	got, err := UnmarshalTag(MarshalTag(tag))
	if err != nil {
		t.Fatalf("UnmarshalTag: %v", err)
	}
	if diff := cmp.Diff(tag, got); diff != "" {
		t.Errorf("tag round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitSigningPayload_ExcludesSignature(t *testing.T) {
	c := &CommitObj{
		TreeHash:  testHash("tree"),
		Author:    "a",
		Timestamp: 1,
		Message:   "m",
	}
	unsigned := CommitSigningPayload(c)

	c.Signature = "sshsig-v1:ssh-ed25519:AAAA:BBBB"
	signed := CommitSigningPayload(c)

	if string(unsigned) != string(signed) {
		t.Error("signing payload changed when signature was set")
	}
	if strings.Contains(string(signed), "signature") {
		t.Error("signing payload contains the signature header")
	}
}

func TestMarshalTree_NameWithSpacesRoundTrips(t *testing.T) {
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "my docs", IsDir: true, Mode: TreeModeDir, SubtreeHash: testHash("docs")},
		{Name: "release notes.md", Mode: TreeModeFile, BlobHash: testHash("notes")},
	}}

	got, err := UnmarshalTree(MarshalTree(tr))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if diff := cmp.Diff(tr, got); diff != "" {
		t.Errorf("tree round trip mismatch (-want +got):\n%s", diff)
	}
}
