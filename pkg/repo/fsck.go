package repo

import (
	"fmt"
	"sort"

	"github.com/nlowell/grit/pkg/object"
)

// FsckIssue describes one problem found during a full repository check.
type FsckIssue struct {
	Hash    object.Hash
	Problem string
}

// Fsck verifies every loose object against its hash, then walks refs,
// commits, and trees checking that every referenced object exists.
// It returns all issues found rather than stopping at the first.
func (r *Repo) Fsck() ([]FsckIssue, error) {
	var issues []FsckIssue

	corrupt, err := r.Store.VerifyAll()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	bad := make(map[object.Hash]bool, len(corrupt))
	for h, verr := range corrupt {
		bad[h] = true
		issues = append(issues, FsckIssue{Hash: h, Problem: verr.Error()})
	}

	hashes, err := r.Store.ListHashes()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}

	exists := func(h object.Hash) bool {
		return r.Store.Has(h) && !bad[h]
	}

	for _, h := range hashes {
		if bad[h] {
			continue
		}
		objType, data, err := r.Store.Read(h)
		if err != nil {
			issues = append(issues, FsckIssue{Hash: h, Problem: err.Error()})
			continue
		}
		switch objType {
		case object.TypeTree:
			tr, err := object.UnmarshalTree(data)
			if err != nil {
				issues = append(issues, FsckIssue{Hash: h, Problem: err.Error()})
				continue
			}
			for _, e := range tr.Entries {
				target := e.BlobHash
				kind := "blob"
				if e.IsDir {
					target = e.SubtreeHash
					kind = "subtree"
				}
				if !exists(target) {
					issues = append(issues, FsckIssue{
						Hash:    h,
						Problem: fmt.Sprintf("tree entry %q references missing %s %s", e.Name, kind, target),
					})
				}
			}
		case object.TypeCommit:
			c, err := object.UnmarshalCommit(data)
			if err != nil {
				issues = append(issues, FsckIssue{Hash: h, Problem: err.Error()})
				continue
			}
			if !exists(c.TreeHash) {
				issues = append(issues, FsckIssue{
					Hash:    h,
					Problem: fmt.Sprintf("commit references missing tree %s", c.TreeHash),
				})
			}
			for _, p := range c.Parents {
				if !exists(p) {
					issues = append(issues, FsckIssue{
						Hash:    h,
						Problem: fmt.Sprintf("commit references missing parent %s", p),
					})
				}
			}
		case object.TypeTag:
			t, err := object.UnmarshalTag(data)
			if err != nil {
				issues = append(issues, FsckIssue{Hash: h, Problem: err.Error()})
				continue
			}
			if !exists(t.TargetHash) {
				issues = append(issues, FsckIssue{
					Hash:    h,
					Problem: fmt.Sprintf("tag references missing target %s", t.TargetHash),
				})
			}
		}
	}

	refIssues, err := r.fsckRefs()
	if err != nil {
		return nil, err
	}
	issues = append(issues, refIssues...)

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Hash != issues[j].Hash {
			return issues[i].Hash < issues[j].Hash
		}
		return issues[i].Problem < issues[j].Problem
	})
	return issues, nil
}

func (r *Repo) fsckRefs() ([]FsckIssue, error) {
	var issues []FsckIssue

	for _, namespace := range []string{"heads", "tags"} {
		refs, err := r.ListRefs(namespace)
		if err != nil {
			return nil, fmt.Errorf("fsck refs/%s: %w", namespace, err)
		}
		for name, h := range refs {
			if !r.Store.Has(h) {
				issues = append(issues, FsckIssue{
					Hash:    h,
					Problem: fmt.Sprintf("ref refs/%s/%s points at missing object", namespace, name),
				})
			}
		}
	}

	// HEAD on an unborn branch resolves to nothing; that is fine.
	if h, err := r.ResolveRef("HEAD"); err == nil && h != "" && !r.Store.Has(h) {
		issues = append(issues, FsckIssue{
			Hash:    h,
			Problem: "HEAD points at missing object",
		})
	}
	return issues, nil
}
