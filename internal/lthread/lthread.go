// Package lthread implements the logical thread: a named, cooperatively
// scheduled execution context owned by exactly one reactor at a time.
package lthread

import (
	"sync"
	"sync/atomic"
)

// nextID hands out process-wide unique logical thread identifiers.
var nextID atomic.Uint64

// Msg is a callback queued onto a logical thread's message queue. It runs
// in the context of whichever reactor currently owns the thread.
type Msg func()

// LThread is a named, cooperatively scheduled execution context. It is
// created by a subsystem (possibly on a different core than it will run
// on), placed into the admissible reactor's incoming queue, adopted into
// that reactor's thread list on its next poll, and polled every loop
// iteration thereafter until Exit is observed.
type LThread struct {
	Name    string
	ID      uint64
	CPUMask []int // admissible cores; empty means "any core"

	exited atomic.Bool

	mu    sync.Mutex
	inbox []Msg
}

// New creates a logical thread bound to the given set of admissible
// cores. An empty cpuMask means the thread may be adopted by any reactor.
func New(name string, cpuMask []int) *LThread {
	return &LThread{
		Name:    name,
		ID:      nextID.Add(1),
		CPUMask: cpuMask,
	}
}

// Admits reports whether this thread may be adopted by a reactor running
// on the given core.
func (t *LThread) Admits(core int) bool {
	if len(t.CPUMask) == 0 {
		return true
	}
	for _, c := range t.CPUMask {
		if c == core {
			return true
		}
	}
	return false
}

// Post appends a callback to the thread's message queue. Safe to call
// from any core; the callback runs on whichever reactor currently owns
// the thread, the next time that reactor polls it.
func (t *LThread) Post(m Msg) {
	t.mu.Lock()
	t.inbox = append(t.inbox, m)
	t.mu.Unlock()
}

// Poll drains and runs every message queued since the last poll. Must
// only be called by the reactor that currently owns this thread.
func (t *LThread) Poll() {
	t.mu.Lock()
	pending := t.inbox
	t.inbox = nil
	t.mu.Unlock()

	for _, m := range pending {
		m()
	}
}

// Exit marks the thread for removal. The owning reactor notices on a
// subsequent poll loop iteration and destroys the thread; Exit does not
// itself stop the thread from being polled one more time.
func (t *LThread) Exit() {
	t.exited.Store(true)
}

// Exited reports whether Exit has been called.
func (t *LThread) Exited() bool {
	return t.exited.Load()
}
