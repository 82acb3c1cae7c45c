package nexus

import (
	"sync/atomic"

	"github.com/mayastor-io/io-engine-core/internal/reactor"
)

// Channel is the per-core I/O routing state for a nexus: the live
// writers/readers handle vectors, the round-robin read cursor, and a
// fail-fast counter. It is touched only from the core that built it,
// under that core's cooperative reactor context — never from an
// arbitrary goroutine — since reconfiguration replaces the vectors
// wholesale and any concurrent submission reading stale indices would
// tear.
type Channel struct {
	back *Nexus // non-owning; valid only under the owning core's context

	writers []IOHandle
	readers []IOHandle

	previous int
	failFast atomic.Uint64
}

// requireReactorContext enforces that reconfiguration only ever runs
// from inside a reactor's own poll loop, never from an arbitrary
// goroutine racing the vectors it's about to replace.
func requireReactorContext() {
	if reactor.Current() == nil {
		panic("nexus: channel operation invoked outside a reactor's cooperative context")
	}
}

// NewChannel builds a channel for nexus on the calling core. It must run
// from inside that core's reactor context (see requireReactorContext).
func NewChannel(n *Nexus) *Channel {
	requireReactorContext()

	ch := &Channel{back: n}
	for _, c := range n.Children() {
		state, _ := c.State()
		if state != ChildOpen {
			continue
		}
		w, r, err := c.Device.Open()
		if err != nil {
			c.CompareAndSwapState(ChildOpen, ChildFaulted, ReasonCantOpen)
			continue
		}
		ch.writers = append(ch.writers, w)
		ch.readers = append(ch.readers, r)
	}
	return ch
}

// ChildSelect returns the reader index to use for the next read in
// strict round-robin order, or false if there are no readers.
func (ch *Channel) ChildSelect() (int, bool) {
	if len(ch.readers) == 0 {
		return 0, false
	}
	ch.previous = (ch.previous + 1) % len(ch.readers)
	return ch.previous, true
}

// FailFast returns the channel's consecutive-submission-failure count.
func (ch *Channel) FailFast() uint64 {
	return ch.failFast.Load()
}

// RecordSubmitFailure bumps the fail-fast counter; callers above the
// channel use this to decide when a child has become too unreliable to
// keep routing reads to.
func (ch *Channel) RecordSubmitFailure() uint64 {
	return ch.failFast.Add(1)
}

// RemoveDevice retains only handles whose device name differs from
// name, resets the round-robin cursor, then faults the matching child
// and returns that fault attempt's result.
func (ch *Channel) RemoveDevice(name string) bool {
	requireReactorContext()

	ch.writers = retain(ch.writers, name)
	ch.readers = retain(ch.readers, name)
	ch.previous = 0

	return ch.FaultDevice(name)
}

func retain(handles []IOHandle, name string) []IOHandle {
	kept := handles[:0]
	for _, h := range handles {
		if h.DeviceName() == name {
			_ = h.Close()
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// FaultDevice compare-and-swaps every child named name and currently
// ChildOpen to ChildFaulted(IoError). Returns true iff at least one
// transition succeeded.
func (ch *Channel) FaultDevice(name string) bool {
	requireReactorContext()

	faulted := false
	for _, c := range ch.back.Children() {
		if c.DeviceName != name {
			continue
		}
		if c.Device == nil {
			continue // already retired; cannot be the target
		}
		if c.CompareAndSwapState(ChildOpen, ChildFaulted, ReasonIoError) {
			faulted = true
		}
	}
	return faulted
}

// Refresh rebuilds both vectors from the current child states. New
// handles are fully acquired before the old vectors are closed and
// replaced — never interleaved, so a concurrent submission never
// observes a torn mix of old and new handles.
func (ch *Channel) Refresh() {
	requireReactorContext()

	hadReaders := len(ch.readers) > 0

	var writers, readers []IOHandle
	for _, c := range ch.back.Children() {
		state, _ := c.State()
		if state != ChildOpen {
			continue
		}
		w, r, err := c.Device.Open()
		if err != nil {
			c.CompareAndSwapState(ChildOpen, ChildFaulted, ReasonCantOpen)
			continue
		}
		writers = append(writers, w)
		readers = append(readers, r)
	}

	if hadReaders {
		for _, c := range ch.back.Children() {
			state, _ := c.State()
			if state != ChildRebuilding {
				continue
			}
			w, _, err := c.Device.Open()
			if err != nil {
				c.CompareAndSwapState(ChildRebuilding, ChildFaulted, ReasonCantOpen)
				continue
			}
			writers = append(writers, w)
		}
	}

	old := ch.writers
	oldReaders := ch.readers
	ch.writers = writers
	ch.readers = readers
	ch.previous = 0

	for _, h := range old {
		_ = h.Close()
	}
	for _, h := range oldReaders {
		_ = h.Close()
	}
}

// Clear closes every handle in both vectors and empties them.
func (ch *Channel) Clear() {
	for _, h := range ch.writers {
		_ = h.Close()
	}
	for _, h := range ch.readers {
		_ = h.Close()
	}
	ch.writers = nil
	ch.readers = nil
	ch.previous = 0
}

// Writers returns a defensive copy of the current writer handles.
func (ch *Channel) Writers() []IOHandle {
	out := make([]IOHandle, len(ch.writers))
	copy(out, ch.writers)
	return out
}

// Readers returns a defensive copy of the current reader handles.
func (ch *Channel) Readers() []IOHandle {
	out := make([]IOHandle, len(ch.readers))
	copy(out, ch.readers)
	return out
}
