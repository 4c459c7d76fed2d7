package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nlowell/grit/pkg/diff"
)

// DiffWorktree diffs staged blobs against the working tree, returning
// one FileDiff per path that differs. Deleted files diff against empty
// content.
func (r *Repo) DiffWorktree() ([]*diff.FileDiff, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	var out []*diff.FileDiff
	for _, path := range sortedStagingPaths(stg) {
		se := stg.Entries[path]
		blob, err := r.Store.ReadBlob(se.BlobHash)
		if err != nil {
			return nil, fmt.Errorf("diff: read staged blob %q: %w", path, err)
		}

		work, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(path)))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("diff: read %q: %w", path, err)
		}

		fd := diff.Lines(path, blob.Data, work)
		if fd.Changed() {
			out = append(out, fd)
		}
	}
	return out, nil
}

// DiffStaged diffs the HEAD tree against staged blobs, returning one
// FileDiff per path that differs. Newly staged files diff against empty
// content, as do files deleted from the index.
func (r *Repo) DiffStaged() ([]*diff.FileDiff, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	paths := make(map[string]struct{}, len(stg.Entries)+len(headEntries))
	for p := range stg.Entries {
		paths[p] = struct{}{}
	}
	for p := range headEntries {
		paths[p] = struct{}{}
	}

	var out []*diff.FileDiff
	for _, path := range sortedPathSet(paths) {
		var before, after []byte

		if hs, inHead := headEntries[path]; inHead {
			blob, err := r.Store.ReadBlob(hs.BlobHash)
			if err != nil {
				return nil, fmt.Errorf("diff: read HEAD blob %q: %w", path, err)
			}
			before = blob.Data
		}
		if se, staged := stg.Entries[path]; staged {
			blob, err := r.Store.ReadBlob(se.BlobHash)
			if err != nil {
				return nil, fmt.Errorf("diff: read staged blob %q: %w", path, err)
			}
			after = blob.Data
		}

		fd := diff.Lines(path, before, after)
		if fd.Changed() {
			out = append(out, fd)
		}
	}
	return out, nil
}

func sortedStagingPaths(stg *Staging) []string {
	paths := make([]string, 0, len(stg.Entries))
	for p := range stg.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
