package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nlowell/grit/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second

	symrefPrefix = "ref: "

	// Symbolic chains longer than this are treated as cyclic even when no
	// literal loop was observed yet.
	maxSymrefDepth = 16
)

// RefUpdateReflogError indicates the ref file update succeeded, but
// appending the corresponding reflog entry failed. The ref update remains
// committed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: ref updated but reflog append failed (old=%s new=%s): %v",
		e.Ref, e.OldHash, e.NewHash, e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Head reads .grit/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g., "refs/heads/main"). Otherwise it returns the raw
// content as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GritDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	return strings.TrimPrefix(content, symrefPrefix), nil
}

// ResolveRef resolves a ref name to an object hash, following symbolic
// indirection ("ref: <path>" file contents) until it reaches a direct
// hash. A symbolic loop fails with ErrCyclicReference; a missing ref file
// fails with ErrRefNotFound.
//
// Resolution order for name:
//  1. "HEAD" reads .grit/HEAD.
//  2. Names starting with "refs/" are read as-is under .grit/.
//  3. Anything else is tried as "refs/heads/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	visited := make(map[string]struct{})
	cur := name

	for depth := 0; ; depth++ {
		if _, seen := visited[cur]; seen || depth > maxSymrefDepth {
			return "", fmt.Errorf("resolve ref %q: via %q: %w", name, cur, ErrCyclicReference)
		}
		visited[cur] = struct{}{}

		content, err := r.readRefFile(cur)
		if err != nil {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}

		if target, isSym := strings.CutPrefix(content, symrefPrefix); isSym {
			cur = strings.TrimSpace(target)
			continue
		}
		return object.Hash(content), nil
	}
}

// readRefFile reads the raw first line of a ref file for name, applying
// the HEAD / refs/ / refs/heads/ lookup rules.
func (r *Repo) readRefFile(name string) (string, error) {
	var refPath string
	switch {
	case name == "HEAD":
		refPath = filepath.Join(r.GritDir, "HEAD")
	case strings.HasPrefix(name, "refs/"):
		refPath = filepath.Join(r.GritDir, filepath.FromSlash(name))
	default:
		refPath = filepath.Join(r.GritDir, "refs", "heads", filepath.FromSlash(name))
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%q: %w", name, ErrRefNotFound)
		}
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// UpdateRef writes a hash to the named ref file under .grit/. Parent
// directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file under .grit/ using
// lockfile + rename atomic semantics: acquire the lock, read the current
// value, validate, write, rename, release. If expectedOld is provided,
// the update only succeeds when the current ref hash matches it.
//
// Reflog append happens after the ref rename; if it fails, the ref update
// remains committed and a RefUpdateReflogError is returned.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}

	refPath := filepath.Join(r.GritDir, filepath.FromSlash(name))

	dir := filepath.Dir(refPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf(
			"update ref %q: %w (expected %s, found %s)",
			name, ErrRefCASMismatch, expectedOld[0], oldHash,
		)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return &RefUpdateReflogError{
			Ref:     name,
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}

	return nil
}

// DeleteRef removes the named ref file. Fails with ErrRefNotFound when
// the ref does not exist.
func (r *Repo) DeleteRef(name string) error {
	refPath := filepath.Join(r.GritDir, filepath.FromSlash(name))
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete ref %q: %w", name, ErrRefNotFound)
		}
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	return nil
}

// ListRefs returns refs under .grit/refs/<namespace>/ as a map from the
// name relative to that namespace (slash-separated) to the resolved hash.
func (r *Repo) ListRefs(namespace string) (map[string]object.Hash, error) {
	base := filepath.Join(r.GritDir, "refs", filepath.FromSlash(namespace))

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) && path == base {
				return filepath.SkipAll
			}
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		h, err := r.ResolveRef("refs/" + namespace + "/" + rel)
		if err != nil {
			return err
		}
		refs[rel] = h
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list refs %q: %w", namespace, err)
	}
	return refs, nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}
