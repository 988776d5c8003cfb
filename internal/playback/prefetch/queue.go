package prefetch

import (
	"container/heap"
	"sync"

	"github.com/zsiec/reel/internal/metrics"
)

type key struct {
	sourceID string
	frame    int64
}

type request struct {
	key      key
	priority int
	seq      uint64
	index    int
}

// requestHeap orders by descending priority; equal priorities fall back
// to insertion order.
type requestHeap []*request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	r := x.(*request)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}

// queue is the bounded pending-request set: unique per (source, frame),
// priority ordered. When full, an incoming request replaces the current
// lowest-priority entry only if strictly higher; otherwise it is
// dropped.
type queue struct {
	mu         sync.Mutex
	maxPending int
	heap       requestHeap
	pending    map[key]*request
	seq        uint64
}

func newQueue(maxPending int) *queue {
	return &queue{
		maxPending: maxPending,
		pending:    make(map[key]*request),
	}
}

func (q *queue) Push(sourceID string, frame int64, priority int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := key{sourceID: sourceID, frame: frame}
	if existing, ok := q.pending[k]; ok {
		if priority > existing.priority {
			existing.priority = priority
			heap.Fix(&q.heap, existing.index)
		}
		return
	}

	if q.maxPending > 0 && len(q.heap) >= q.maxPending {
		victim := q.lowestLocked()
		if victim == nil || victim.priority >= priority {
			metrics.IncrementPrefetchDropped()
			return
		}
		heap.Remove(&q.heap, victim.index)
		delete(q.pending, victim.key)
		metrics.IncrementPrefetchDropped()
	}

	q.seq++
	r := &request{key: k, priority: priority, seq: q.seq}
	heap.Push(&q.heap, r)
	q.pending[k] = r
	metrics.SetPrefetchQueueDepth(len(q.heap))
}

// lowestLocked scans for the lowest-priority entry. Overflow is rare
// enough that the linear scan beats maintaining a second heap.
func (q *queue) lowestLocked() *request {
	var lowest *request
	for _, r := range q.heap {
		if lowest == nil || r.priority < lowest.priority ||
			(r.priority == lowest.priority && r.seq > lowest.seq) {
			lowest = r
		}
	}
	return lowest
}

// PopBatch removes and returns up to n highest-priority requests.
func (q *queue) PopBatch(n int) []*request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.heap) {
		n = len(q.heap)
	}
	batch := make([]*request, 0, n)
	for i := 0; i < n; i++ {
		r := heap.Pop(&q.heap).(*request)
		delete(q.pending, r.key)
		batch = append(batch, r)
	}
	metrics.SetPrefetchQueueDepth(len(q.heap))
	return batch
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

func (q *queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = nil
	q.pending = make(map[key]*request)
	metrics.SetPrefetchQueueDepth(0)
}
