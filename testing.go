package xtask

import (
	"sync"

	"github.com/xtask-project/xtask/internal/cs"
)

// LEDRecorder stands in for the board-level set_leds/clr_leds macros
// behind scenario 1 (original_source/xtask/src/debug.c,
// demo/common/tile.h), recording on/off transitions instead of driving
// real GPIO so cmd/xtask-blink's behavior is testable (SPEC_FULL.md
// §4.6).
type LEDRecorder struct {
	mu          sync.Mutex
	transitions []bool // true = on, false = off
}

// Set records one LED transition.
func (r *LEDRecorder) Set(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, on)
}

// Transitions returns a copy of every recorded transition, in order.
func (r *LEDRecorder) Transitions() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// MockWorker is a cs.Worker test double: Deliver records every buffer
// handed to it instead of driving a real hardware thread, and Resume
// counts how many times the CS re-armed it after a CS_BLOCK condition
// cleared.
type MockWorker struct {
	mu        sync.Mutex
	delivered [][]byte
	resumes   int
}

var _ cs.Worker = (*MockWorker)(nil)

func (w *MockWorker) Deliver(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	w.delivered = append(w.delivered, buf)
}

func (w *MockWorker) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resumes++
}

// Delivered returns every buffer handed to Deliver, in order.
func (w *MockWorker) Delivered() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.delivered))
	copy(out, w.delivered)
	return out
}

// Resumes returns how many times Resume was called.
func (w *MockWorker) Resumes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resumes
}
