// Package nexus implements the replicated-block-device I/O channel: the
// per-core routing structure that tracks which child devices of a nexus
// are currently reachable for reads and writes, and the dynamic
// reconfiguration protocol that rebuilds it as children come and go.
package nexus

import (
	"fmt"
	"sync"
)

// ChildState is a child device's position in its lifecycle. Recovered
// from the original nexus child state machine — the distilled spec
// collapses a child to a bare attribute list, but nothing excludes
// restoring the richer enum a real implementation needs.
type ChildState int

const (
	ChildInit ChildState = iota
	ChildOpen
	ChildFaulted
	ChildClosed
	ChildRebuilding
)

func (s ChildState) String() string {
	switch s {
	case ChildInit:
		return "init"
	case ChildOpen:
		return "open"
	case ChildFaulted:
		return "faulted"
	case ChildClosed:
		return "closed"
	case ChildRebuilding:
		return "rebuilding"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FaultReason qualifies a ChildFaulted state.
type FaultReason int

const (
	ReasonUnknown FaultReason = iota
	ReasonCantOpen
	ReasonIoError
	ReasonRebuildFailed
)

func (r FaultReason) String() string {
	switch r {
	case ReasonUnknown:
		return "unknown"
	case ReasonCantOpen:
		return "cant_open"
	case ReasonIoError:
		return "io_error"
	case ReasonRebuildFailed:
		return "rebuild_failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Device is the minimal contract a backing block device must satisfy to
// back a Child: it can be opened for a pair of independent I/O handles.
type Device interface {
	Open() (writer IOHandle, reader IOHandle, err error)
}

// Child is one backing device of a nexus, with its own state machine.
// State and reason are mutated only through CompareAndSwapState, which
// is the single atomic primitive every reconfiguration operation relies
// on to avoid racing another core's concurrent transition attempt.
type Child struct {
	DeviceName string
	Device     Device

	mu     sync.Mutex
	state  ChildState
	reason FaultReason
}

// NewChild creates a child in ChildInit, not yet eligible for any
// channel's handle acquisition.
func NewChild(name string, device Device) *Child {
	return &Child{DeviceName: name, Device: device, state: ChildInit}
}

// State returns the child's current state and, if ChildFaulted, the
// reason it was faulted.
func (c *Child) State() (ChildState, FaultReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.reason
}

// CompareAndSwapState transitions the child from `from` to `to`,
// recording reason if the new state is ChildFaulted. Returns false
// without effect if the child's current state isn't `from`.
func (c *Child) CompareAndSwapState(from, to ChildState, reason FaultReason) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	if to == ChildFaulted {
		c.reason = reason
	} else {
		c.reason = ReasonUnknown
	}
	return true
}

// SetState unconditionally sets the child's state, for construction and
// test fixtures where no prior-state guard is meaningful.
func (c *Child) SetState(to ChildState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = to
	c.reason = ReasonUnknown
}
