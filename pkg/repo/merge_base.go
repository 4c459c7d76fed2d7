package repo

import (
	"container/heap"
	"fmt"

	"github.com/nlowell/grit/pkg/object"
)

const (
	flagReachedA uint8 = 1 << iota
	flagReachedB
)

const maxMergeBaseSteps = 1_000_000

// mergeBaseStepsLimit exists so tests can tighten the safety limit
// without affecting the production default.
var mergeBaseStepsLimit = maxMergeBaseSteps

// MergeBase finds the lowest common ancestor of two commits, or "" when
// the histories are disjoint. Generation numbers order the walk so the
// first commit reached from both sides is a deepest common ancestor;
// among candidates at equal generation the lexicographically smallest
// hash wins, keeping the result deterministic. Results are memoized per
// opened Repo.
func (r *Repo) MergeBase(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	state := r.getGraphState()
	if cached, ok := state.loadMergeBase(a, b); ok {
		if cached.found {
			return cached.base, nil
		}
		return "", nil
	}

	// Fast path: one side already contains the other.
	if isAnc, err := r.IsAncestor(a, b); err != nil {
		return "", err
	} else if isAnc {
		state.storeMergeBase(a, b, a, true)
		return a, nil
	}
	if isAnc, err := r.IsAncestor(b, a); err != nil {
		return "", err
	} else if isAnc {
		state.storeMergeBase(a, b, b, true)
		return b, nil
	}

	base, found, err := r.findMergeBase(state, a, b)
	if err != nil {
		return "", err
	}
	state.storeMergeBase(a, b, base, found)
	if !found {
		return "", nil
	}
	return base, nil
}

// findMergeBase walks both ancestries concurrently with a single
// priority queue ordered by generation (descending, ties by smaller
// hash). Flags record which start commits reach each popped commit;
// because parents always have strictly smaller generations, every mark
// on a commit lands before that commit is popped, so the first commit
// popped with both flags is the answer.
func (r *Repo) findMergeBase(state *graphTraversalState, a, b object.Hash) (object.Hash, bool, error) {
	flags := map[object.Hash]uint8{a: flagReachedA, b: flagReachedB}
	queued := map[object.Hash]struct{}{a: {}, b: {}}

	var queue walkMaxHeap
	for _, h := range []object.Hash{a, b} {
		gen, err := state.generation(r, h)
		if err != nil {
			return "", false, fmt.Errorf("find merge base: %w", err)
		}
		heap.Push(&queue, walkQueueItem{hash: h, priority: gen})
	}

	steps := 0
	for queue.Len() > 0 {
		steps++
		if steps > mergeBaseStepsLimit {
			return "", false, fmt.Errorf("find merge base: traversal exceeded maximum steps (%d)", mergeBaseStepsLimit)
		}

		item := heap.Pop(&queue).(walkQueueItem)
		cur := item.hash

		if flags[cur] == flagReachedA|flagReachedB {
			return cur, true, nil
		}

		commit, err := state.readCommit(r, cur)
		if err != nil {
			return "", false, fmt.Errorf("find merge base: %w", err)
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			flags[p] |= flags[cur]
			if _, already := queued[p]; already {
				continue
			}
			queued[p] = struct{}{}
			gen, err := state.generation(r, p)
			if err != nil {
				return "", false, fmt.Errorf("find merge base: %w", err)
			}
			heap.Push(&queue, walkQueueItem{hash: p, priority: gen})
		}
	}

	return "", false, nil
}
