package repo

import (
	"container/heap"
	"fmt"

	"github.com/nlowell/grit/pkg/object"
)

// RevWalk is a lazy iterator over the ancestors of a commit, the commit
// itself included. Commits are yielded highest-timestamp-first (ties by
// smaller hash) and each reachable commit is visited exactly once; the
// walk is finite because the graph is acyclic. Callers may simply stop
// calling Next for an early exit.
type RevWalk struct {
	repo    *Repo
	state   *graphTraversalState
	queue   walkMaxHeap
	visited map[object.Hash]struct{}
	err     error
}

// Ancestors starts a walk over start and everything reachable from it.
func (r *Repo) Ancestors(start object.Hash) *RevWalk {
	w := &RevWalk{
		repo:    r,
		state:   r.getGraphState(),
		visited: make(map[object.Hash]struct{}),
	}
	w.push(start)
	return w
}

func (w *RevWalk) push(h object.Hash) {
	if h == "" {
		return
	}
	if _, seen := w.visited[h]; seen {
		return
	}
	w.visited[h] = struct{}{}

	commit, err := w.state.readCommit(w.repo, h)
	if err != nil {
		w.err = fmt.Errorf("ancestors: %w", err)
		return
	}
	heap.Push(&w.queue, walkQueueItem{hash: h, priority: timestampPriority(commit.Timestamp)})
}

// timestampPriority biases an int64 timestamp into a uint64 that sorts
// the same way, so pre-1970 (negative) timestamps do not wrap to huge
// priorities.
func timestampPriority(ts int64) uint64 {
	return uint64(ts) ^ (1 << 63)
}

// Next returns the next ancestor, or (nil, nil) when the walk is
// exhausted. Once Next returns an error the walk is dead.
func (w *RevWalk) Next() (object.Hash, *object.CommitObj, error) {
	if w.err != nil {
		return "", nil, w.err
	}
	if w.queue.Len() == 0 {
		return "", nil, nil
	}

	item := heap.Pop(&w.queue).(walkQueueItem)
	commit, err := w.state.readCommit(w.repo, item.hash)
	if err != nil {
		w.err = fmt.Errorf("ancestors: %w", err)
		return "", nil, w.err
	}

	for _, p := range commit.Parents {
		w.push(p)
		if w.err != nil {
			return "", nil, w.err
		}
	}

	return item.hash, commit, nil
}

// AncestorHashes materializes the full walk into a slice.
func (r *Repo) AncestorHashes(start object.Hash) ([]object.Hash, error) {
	walk := r.Ancestors(start)
	var hashes []object.Hash
	for {
		h, c, err := walk.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return hashes, nil
		}
		hashes = append(hashes, h)
	}
}

// IsAncestor reports whether ancestor is reachable from descendant
// (a commit is its own ancestor). Generation numbers prune the search:
// a commit whose generation is not above the candidate's cannot lead
// to it.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	if ancestor == "" || descendant == "" {
		return false, nil
	}
	if ancestor == descendant {
		return true, nil
	}

	state := r.getGraphState()
	ancestorGen, err := state.generation(r, ancestor)
	if err != nil {
		return false, fmt.Errorf("is ancestor: %w", err)
	}

	visited := map[object.Hash]struct{}{descendant: {}}
	queue := []object.Hash{descendant}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == ancestor {
			return true, nil
		}

		curGen, err := state.generation(r, cur)
		if err != nil {
			return false, fmt.Errorf("is ancestor: %w", err)
		}
		if curGen <= ancestorGen {
			continue
		}

		commit, err := state.readCommit(r, cur)
		if err != nil {
			return false, fmt.Errorf("is ancestor: %w", err)
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return false, nil
}
