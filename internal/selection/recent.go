package selection

import "git.home.luguber.info/inful/namepick/internal/bitset"

// recentWindow is the bounded FIFO of the last capacity picked indices, with
// a mirror bitmap for O(1) membership during candidate filtering.
//
// Invariant: mask.Count() == len(queue) <= capacity.
type recentWindow struct {
	capacity int
	queue    []int
	mask     *bitset.Bitset
}

func newRecentWindow(capacity, population int) *recentWindow {
	if capacity < 0 {
		capacity = 0
	}
	return &recentWindow{
		capacity: capacity,
		mask:     bitset.New(population),
	}
}

// enabled reports whether the window suppresses anything at all.
func (w *recentWindow) enabled() bool {
	return w.capacity > 0
}

// observe records a pick. When the queue is full the oldest entry is evicted
// first: eviction is FIFO by pick order, not LRU by access.
func (w *recentWindow) observe(idx int) {
	if !w.enabled() {
		return
	}
	if len(w.queue) >= w.capacity {
		oldest := w.queue[0]
		w.queue = w.queue[1:]
		w.mask.Clear(oldest)
	}
	w.queue = append(w.queue, idx)
	w.mask.Set(idx)
}

// clear empties the queue and the bitmap.
func (w *recentWindow) clear() {
	w.queue = w.queue[:0]
	w.mask.ClearAll()
}

// resize changes the capacity, keeping the most recently picked
// min(len(queue), capacity) entries and rebuilding the bitmap from what
// survives. Capacity 0 disables the window entirely.
func (w *recentWindow) resize(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	w.capacity = capacity

	if capacity == 0 {
		w.clear()
		return
	}

	if len(w.queue) > capacity {
		w.queue = append([]int(nil), w.queue[len(w.queue)-capacity:]...)
	}
	w.mask.ClearAll()
	for _, idx := range w.queue {
		w.mask.Set(idx)
	}
}
