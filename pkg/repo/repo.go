// Package repo implements the repository engine: the staging index, the
// commit graph with its mutable references, history traversal, and the
// working-tree status machinery. All object persistence goes through
// pkg/object's content-addressed store.
package repo

import (
	"errors"
	"sync"

	"github.com/nlowell/grit/pkg/object"
)

var (
	// ErrNotARepository is returned when the required .grit/ layout is
	// missing from the target path and all of its parents.
	ErrNotARepository = errors.New("not a grit repository")

	// ErrRefNotFound is returned when a named reference does not exist.
	ErrRefNotFound = errors.New("ref not found")

	// ErrCyclicReference is returned when symbolic references form a loop.
	ErrCyclicReference = errors.New("cyclic symbolic reference")

	// ErrRefCASMismatch is returned when a compare-and-swap ref update
	// finds a current value other than the expected one.
	ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")

	// ErrDanglingReference is returned when a commit is created against a
	// tree or parent hash that is not present in the object store.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrPathNotStaged is returned when removing a path that has no
	// staging entry.
	ErrPathNotStaged = errors.New("path not staged")
)

// Repo represents an opened grit repository.
type Repo struct {
	RootDir string        // working directory root
	GritDir string        // .grit/ directory
	Store   *object.Store // content-addressed object store

	graphStateOnce sync.Once
	graphState     *graphTraversalState
}

func (r *Repo) getGraphState() *graphTraversalState {
	r.graphStateOnce.Do(func() {
		r.graphState = newGraphTraversalState()
	})
	return r.graphState
}
