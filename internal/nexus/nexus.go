package nexus

import "sync"

// Nexus is a replicated block device composed of one or more child
// devices. It owns the canonical child list; a Channel built against it
// holds only a non-owning back-reference, valid because every
// reconfiguration runs under the same core's primary logical thread
// that created the channel in the first place.
type Nexus struct {
	Name string

	mu       sync.RWMutex
	children []*Child
}

// New creates an empty nexus. Children are attached with AddChild before
// any channel is built against it.
func New(name string) *Nexus {
	return &Nexus{Name: name}
}

// AddChild attaches a child device to the nexus.
func (n *Nexus) AddChild(c *Child) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = append(n.children, c)
}

// Children returns a defensive copy of the nexus's child list.
func (n *Nexus) Children() []*Child {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Child, len(n.children))
	copy(out, n.children)
	return out
}

// ChildByName returns the child with the given device name, if any.
func (n *Nexus) ChildByName(name string) (*Child, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, c := range n.children {
		if c.DeviceName == name {
			return c, true
		}
	}
	return nil, false
}
