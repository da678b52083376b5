package task

// BlockList holds blocked tasks, unordered (spec.md §3: "block list
// (unordered)"). The source scans this list linearly to match an incoming
// CS reply to the task that is waiting for it (spec.md §4.1's notification
// table); xtask keeps the same linear scan since the list is tiny (bounded
// by a core's live task count) and the match key varies by reply category.
type BlockList struct {
	tasks []*Task
}

// NewBlockList returns an empty block list.
func NewBlockList() *BlockList { return &BlockList{} }

// Add parks t on the block list.
func (b *BlockList) Add(t *Task) { b.tasks = append(b.tasks, t) }

// RemoveMatch removes and returns the first task for which match returns
// true, or nil if none match (spec.md §4.1: "If no match is found the
// notification is silently dropped").
func (b *BlockList) RemoveMatch(match func(*Task) bool) *Task {
	for i, t := range b.tasks {
		if match(t) {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			return t
		}
	}
	return nil
}

// Len reports the number of blocked tasks.
func (b *BlockList) Len() int { return len(b.tasks) }
