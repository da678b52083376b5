package task

import "container/heap"

// DelayHeap orders blocked tasks by ascending expiry tick (spec.md §3, §8:
// "the delay list is sorted by ascending expiry"). spec.md §9 recommends a
// binary heap over the source's sorted intrusive list; container/heap gives
// us that in a dozen lines instead of a hand-rolled insertion sort.
type DelayHeap struct {
	items delayItems
}

type delayItems []*Task

func (d delayItems) Len() int            { return len(d) }
func (d delayItems) Less(i, j int) bool  { return d[i].Expiry < d[j].Expiry }
func (d delayItems) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
	d[i].heapIndex = i
	d[j].heapIndex = j
}

func (d *delayItems) Push(x any) {
	t := x.(*Task)
	t.heapIndex = len(*d)
	*d = append(*d, t)
}

func (d *delayItems) Pop() any {
	old := *d
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*d = old[:n-1]
	return t
}

// NewDelayHeap returns an empty heap.
func NewDelayHeap() *DelayHeap {
	return &DelayHeap{}
}

// Push inserts t, keyed on its current Expiry.
func (h *DelayHeap) Push(t *Task) { heap.Push(&h.items, t) }

// PeekExpiry returns the lowest Expiry in the heap and true, or (0, false)
// if empty — used to decide whether the head has expired without popping.
func (h *DelayHeap) PeekExpiry() (uint64, bool) {
	if len(h.items) == 0 {
		return 0, false
	}
	return h.items[0].Expiry, true
}

// Pop removes and returns the task with the lowest Expiry.
func (h *DelayHeap) Pop() *Task {
	if len(h.items) == 0 {
		return nil
	}
	return heap.Pop(&h.items).(*Task)
}

// Len reports the number of delayed tasks.
func (h *DelayHeap) Len() int { return len(h.items) }
