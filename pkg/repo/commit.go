package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nlowell/grit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an
// encoded signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CreateCommit builds and stores a commit object without touching any
// reference, so callers can construct commits free of branch side
// effects. The tree hash and every parent hash must already exist in the
// object store; a missing one fails with ErrDanglingReference.
func (r *Repo) CreateCommit(treeHash object.Hash, parents []object.Hash, message, author string, timestamp int64) (object.Hash, error) {
	if !r.Store.Has(treeHash) {
		return "", fmt.Errorf("create commit: tree %s: %w", treeHash, ErrDanglingReference)
	}
	for _, p := range parents {
		if !r.Store.Has(p) {
			return "", fmt.Errorf("create commit: parent %s: %w", p, ErrDanglingReference)
		}
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Timestamp: timestamp,
		Message:   message,
	}
	h, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return h, nil
}

// Commit creates a new commit from the current staging area and advances
// the current branch (or detached HEAD) to it.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is
// provided.
//
//  1. Read staging
//  2. BuildTree from staging
//  3. Resolve HEAD to get the parent commit hash (if any)
//  4. CreateCommit with tree hash, parent, author, current timestamp
//  5. CAS-update the current branch ref (or detached HEAD) so two
//     concurrent commits never interleave into a corrupted ref
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// Resolve HEAD to get the parent. An unborn HEAD means first commit;
	// anything else wrong with HEAD must not produce a parentless commit.
	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	switch {
	case err == nil:
		if parentHash != "" {
			parents = append(parents, parentHash)
		}
	case errors.Is(err, ErrRefNotFound):
		// First commit on an unborn branch.
	default:
		return "", fmt.Errorf("commit: resolve HEAD: %w", err)
	}

	commitHash, err := r.CreateCommit(treeHash, parents, message, author, time.Now().Unix())
	if err != nil {
		return "", err
	}

	if signer != nil {
		commitObj, err := r.Store.ReadCommit(commitHash)
		if err != nil {
			return "", fmt.Errorf("commit: reread for signing: %w", err)
		}
		signature, err := signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
		commitHash, err = r.Store.WriteCommit(commitObj)
		if err != nil {
			return "", fmt.Errorf("commit: write signed commit: %w", err)
		}
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}

	// head is either a ref path ("refs/heads/main") or a detached hash.
	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if parentHash == "" {
			updateErr = r.UpdateRefCAS(head, commitHash, "")
		} else {
			updateErr = r.UpdateRefCAS(head, commitHash, parentHash)
		}
		if updateErr != nil {
			return "", fmt.Errorf("commit: update ref %q: %w", head, updateErr)
		}
	} else {
		// Detached HEAD: update HEAD directly with a CAS against the old
		// hash.
		if err := r.UpdateRefCAS("HEAD", commitHash, object.Hash(strings.TrimSpace(head))); err != nil {
			return "", fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	return commitHash, nil
}

// Log walks the commit history starting from the given hash in ancestor
// traversal order (newest first, each commit visited exactly once),
// returning up to limit commits. A limit <= 0 means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.CommitObj, error) {
	walk := r.Ancestors(start)

	var commits []*object.CommitObj
	for {
		if limit > 0 && len(commits) >= limit {
			break
		}
		_, c, err := walk.Next()
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		if c == nil {
			break
		}
		commits = append(commits, c)
	}
	return commits, nil
}
