package repo

import "github.com/nlowell/grit/pkg/object"

// walkQueueItem orders the ancestor walk: highest priority first, ties
// broken by the lexicographically smaller hash so traversal order is
// deterministic. RevWalk uses commit timestamps as priority; the
// merge-base walk uses generation numbers.
type walkQueueItem struct {
	hash     object.Hash
	priority uint64
}

type walkMaxHeap []walkQueueItem

func (h walkMaxHeap) Len() int { return len(h) }

func (h walkMaxHeap) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].hash < h[j].hash
	}
	return h[i].priority > h[j].priority
}

func (h walkMaxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *walkMaxHeap) Push(x any) {
	*h = append(*h, x.(walkQueueItem))
}

func (h *walkMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
