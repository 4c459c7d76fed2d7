package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/zeebo/xxh3"

	"github.com/nlowell/grit/pkg/object"
)

// StagingEntry records the staged state of a single file. BlobHash is the
// source of truth for identity; the stat fields and the xxh3 fingerprint
// only exist to short-circuit re-hashing of unchanged files.
type StagingEntry struct {
	Path        string      `json:"path"`
	BlobHash    object.Hash `json:"blob_hash"`
	Mode        string      `json:"mode,omitempty"`
	ModTime     int64       `json:"mod_time"`
	Size        int64       `json:"size"`
	Fingerprint string      `json:"fingerprint,omitempty"` // xxh3-128 of content
}

// Staging holds the full staging area (index) for a grit repository.
// Paths are unique keys; staging a path that is already present replaces
// the prior entry.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

// contentFingerprint computes the xxh3-128 fingerprint recorded in index
// entries. Never used for identity, only as a cheap modification signal.
func contentFingerprint(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.GritDir, "index")
}

// lockIndex takes the repository's index lock, serializing the
// read-modify-write cycle against concurrent external processes.
func (r *Repo) lockIndex() (*flock.Flock, error) {
	lk := flock.New(filepath.Join(r.GritDir, "index.flock"))
	if err := lk.Lock(); err != nil {
		return nil, fmt.Errorf("lock index: %w", err)
	}
	return lk, nil
}

// ReadStaging loads the staging area from .grit/index. If the file does
// not exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically writes the staging area to .grit/index.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	// Atomic write via temp file + rename.
	tmp, err := os.CreateTemp(r.GritDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given file paths. Each path is resolved relative to the
// repo root. For each file the raw content is written as a blob to the
// object store, and a StagingEntry with the blob hash and file metadata
// replaces any prior entry for that path. The staging area is flushed to
// disk at the end, under the index lock.
func (r *Repo) Add(paths []string) error {
	lk, err := r.lockIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer lk.Unlock()

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}
		if strings.ContainsRune(relPath, '\n') {
			return fmt.Errorf("add: path %q: newline in file name is not supported", relPath)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		evictConflictingEntries(stg, relPath)
		stg.Entries[relPath] = &StagingEntry{
			Path:        relPath,
			BlobHash:    blobHash,
			Mode:        modeFromFileInfo(info),
			ModTime:     info.ModTime().UnixNano(),
			Size:        info.Size(),
			Fingerprint: contentFingerprint(content),
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// evictConflictingEntries drops index entries that cannot coexist with
// path in a single tree: a stale file entry occupying one of path's
// parent directories, and stale entries nested under path when the path
// was a directory before and is a file now. Matches the replacement
// semantics of staging a path whose on-disk kind changed.
func evictConflictingEntries(stg *Staging, path string) {
	dir := path
	for {
		slash := strings.LastIndexByte(dir, '/')
		if slash < 0 {
			break
		}
		dir = dir[:slash]
		delete(stg.Entries, dir)
	}

	prefix := path + "/"
	for p := range stg.Entries {
		if strings.HasPrefix(p, prefix) {
			delete(stg.Entries, p)
		}
	}
}

// Remove unstages the given paths. A path with no staging entry fails
// with ErrPathNotStaged and leaves the index untouched. When
// keepWorktree is false, the working-tree file is deleted as well.
func (r *Repo) Remove(paths []string, keepWorktree bool) error {
	lk, err := r.lockIndex()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	defer lk.Unlock()

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("remove: resolve path %q: %w", p, err)
		}
		if _, staged := stg.Entries[rel]; !staged {
			return fmt.Errorf("remove %q: %w", rel, ErrPathNotStaged)
		}
		rels = append(rels, rel)
	}

	for _, rel := range rels {
		delete(stg.Entries, rel)
		if !keepWorktree {
			absPath := filepath.Join(r.RootDir, filepath.FromSlash(rel))
			if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %q: %w", rel, err)
			}
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and
// does not start with the repo root, it is assumed to already be
// repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// If the relative path escapes the repo, treat the original p as
	// already repo-relative.
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}
