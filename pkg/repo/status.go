package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"github.com/nlowell/grit/pkg/object"
)

// FileStatus represents the state of a file in the working tree or index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in staging, not in HEAD tree
	StatusModified                    // in staging, different from HEAD
	StatusDeleted                     // in HEAD but not in staging (or staged but gone from disk)
	StatusUntracked                   // in working dir, absent from staging and HEAD
	StatusDirty                       // staged but working copy differs from staged
)

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // staging vs HEAD comparison
	WorkStatus  FileStatus // working tree vs staging comparison
}

type headTreeState struct {
	BlobHash object.Hash
	Mode     string
}

// Status computes the working tree status for the repository.
//
// Algorithm:
//  1. Read staging index.
//  2. Walk the working directory (skipping .grit/ and ignored paths).
//  3. Compare working tree files against staging entries.
//  4. Compare staging entries against the HEAD tree (if available).
//  5. Return a sorted list of entries that classify every path known to
//     any of the three sources.
//
// Comparison is by content hash. File metadata and the index fingerprint
// only short-circuit hashing: a stat mismatch triggers an xxh3
// fingerprint check, and only a fingerprint match still requires the
// full content hash to prove cleanliness.
func (r *Repo) Status() ([]StatusEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	ic := NewIgnoreChecker(r.RootDir)

	// Collect all working-tree files (repo-relative paths).
	workFiles := make(map[string]bool)
	err = filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip the root directory itself.
		if rel == "." {
			return nil
		}

		// Skip ignored directories entirely.
		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// Only track regular files.
		if !d.IsDir() {
			workFiles[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	result := make(map[string]*StatusEntry)
	refreshStaging := false

	// --- Working tree vs staging comparison ---

	for path := range workFiles {
		se, inStaging := stg.Entries[path]
		if !inStaging {
			// File exists on disk but not in staging → untracked.
			result[path] = &StatusEntry{
				Path:        path,
				IndexStatus: StatusUntracked,
				WorkStatus:  StatusUntracked,
			}
			continue
		}

		workStatus, refreshed, err := r.classifyWorktreeFile(path, se)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if refreshed {
			refreshStaging = true
		}

		result[path] = &StatusEntry{
			Path:       path,
			WorkStatus: workStatus,
		}
	}

	// For each staged entry not on disk → deleted from working tree.
	for path := range stg.Entries {
		if _, onDisk := workFiles[path]; !onDisk {
			result[path] = &StatusEntry{
				Path:       path,
				WorkStatus: StatusDeleted,
			}
		}
	}

	// --- Staging vs HEAD comparison ---
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	for path, se := range stg.Entries {
		entry, exists := result[path]
		if !exists {
			entry = &StatusEntry{Path: path}
			result[path] = entry
		}

		headState, inHead := headEntries[path]
		switch {
		case !inHead:
			entry.IndexStatus = StatusNew
		case se.BlobHash != headState.BlobHash || normalizeFileMode(se.Mode) != normalizeFileMode(headState.Mode):
			entry.IndexStatus = StatusModified
		default:
			entry.IndexStatus = StatusClean
		}
	}

	// For each HEAD entry not in staging → deleted from index.
	for path := range headEntries {
		if _, inStaging := stg.Entries[path]; !inStaging {
			entry, exists := result[path]
			if !exists {
				entry = &StatusEntry{Path: path}
				result[path] = entry
			}
			entry.IndexStatus = StatusDeleted
		}
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	if refreshStaging {
		if err := r.WriteStaging(stg); err != nil {
			return nil, fmt.Errorf("status: refresh staging: %w", err)
		}
	}

	return entries, nil
}

// classifyWorktreeFile compares one on-disk file against its staging
// entry. Returns the work status and whether the staging entry's stat
// fields were refreshed.
func (r *Repo) classifyWorktreeFile(path string, se *StagingEntry) (FileStatus, bool, error) {
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, false, fmt.Errorf("stat %q: %w", path, err)
	}
	workMode := modeFromFileInfo(info)

	if stagingStatMatchesWorktree(se, info, workMode) {
		return StatusClean, false, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, false, fmt.Errorf("read %q: %w", path, err)
	}

	// Fingerprint fast path: a mismatch proves the content changed
	// without a SHA-256 pass. A match is not proof of cleanliness, so
	// fall through to the full hash.
	if se.Fingerprint != "" && contentFingerprint(content) != se.Fingerprint {
		return StatusDirty, false, nil
	}

	workHash := object.HashObject(object.TypeBlob, content)
	if workHash != se.BlobHash || workMode != normalizeFileMode(se.Mode) {
		return StatusDirty, false, nil
	}
	return StatusClean, refreshStagingEntryStat(se, info, workMode), nil
}

func stagingStatMatchesWorktree(se *StagingEntry, info os.FileInfo, workMode string) bool {
	if se == nil {
		return false
	}
	if normalizeFileMode(se.Mode) != normalizeFileMode(workMode) {
		return false
	}
	if se.Size != info.Size() {
		return false
	}
	if isRacyCleanModTime(info.ModTime()) {
		return false
	}
	// Some filesystems expose coarse (second-level) mtimes. When
	// nanoseconds are zero, same-size edits inside a second can evade
	// stat-only detection.
	if info.ModTime().Nanosecond() == 0 {
		return false
	}
	return se.ModTime == info.ModTime().UnixNano()
}

const statusRacyCleanWindow = 2 * time.Second

func isRacyCleanModTime(modTime time.Time) bool {
	now := time.Now()
	if modTime.After(now) {
		return true
	}
	return now.Sub(modTime) < statusRacyCleanWindow
}

func refreshStagingEntryStat(se *StagingEntry, info os.FileInfo, workMode string) bool {
	if se == nil {
		return false
	}
	nextMode := normalizeFileMode(workMode)
	nextModTime := info.ModTime().UnixNano()
	nextSize := info.Size()
	if se.ModTime == nextModTime && se.Size == nextSize && normalizeFileMode(se.Mode) == nextMode {
		return false
	}
	se.Mode = nextMode
	se.ModTime = nextModTime
	se.Size = nextSize
	return true
}

// headTreeEntries reads the HEAD commit's tree and flattens it into a
// map of path → blob hash and mode. A repo with no commits yet (unborn
// HEAD) yields an empty map; any other failure to read the commit or
// its tree is a real error and propagates.
func (r *Repo) headTreeEntries() (map[string]headTreeState, error) {
	result := make(map[string]headTreeState)

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		if errors.Is(err, ErrRefNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	if headHash == "" {
		return result, nil
	}

	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit %s: %w", headHash, err)
	}

	entries, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("flatten HEAD tree: %w", err)
	}
	for _, e := range entries {
		result[e.Path] = headTreeState{BlobHash: e.BlobHash, Mode: e.Mode}
	}
	return result, nil
}

// trackedFiles returns the union of paths in staging and the HEAD tree.
func (r *Repo) trackedFiles() (map[string]struct{}, error) {
	tracked := make(map[string]struct{})

	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}
	for _, p := range maps.Keys(stg.Entries) {
		tracked[p] = struct{}{}
	}

	headEntries, err := r.headTreeEntries()
	if err != nil {
		return nil, err
	}
	for _, p := range maps.Keys(headEntries) {
		tracked[p] = struct{}{}
	}
	return tracked, nil
}
