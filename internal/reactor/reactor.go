// Package reactor implements the per-core cooperative poll loop: one
// reactor pinned to each enabled CPU core, driving logical threads and a
// local task queue to completion without ever migrating work across
// cores on its own.
package reactor

import (
	"fmt"
	"sync/atomic"

	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/lthread"
	"github.com/mayastor-io/io-engine-core/internal/logging"
)

// State is the lifecycle state of a single reactor's poll loop.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateDelayed
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDelayed:
		return "delayed"
	case StateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Task is a unit of cooperative work polled by the reactor's local task
// queue. It returns true once finished; returning false reschedules it
// for the next poll cycle. Go has no stackful coroutines, so this is the
// idiomatic stand-in for a suspendable future: a task that isn't done
// yet simply gets called again later.
type Task func() bool

// Once wraps a plain closure as a single-shot Task that always reports
// done after running.
func Once(f func()) Task {
	return func() bool {
		f()
		return true
	}
}

// Reactor owns one CPU core's poll loop. Its thread list and task queue
// are touched only by the goroutine running that loop; everything else
// (incoming threads, cross-core futures) arrives through MPSC queues
// safe to push from any goroutine.
type Reactor struct {
	coreID int
	state  atomic.Int32
	tid    atomic.Int64

	log *logging.Logger

	// threads and tasks are owned exclusively by this reactor's own poll
	// loop goroutine; nothing outside it may read or write them.
	threads []*lthread.LThread
	tasks   []Task

	incoming    mpscQueue[*lthread.LThread]
	futureInbox mpscQueue[func()]
}

func newReactor(core int) *Reactor {
	r := &Reactor{
		coreID: core,
		log:    logging.Default().WithCore(core),
	}
	r.state.Store(int32(StateInit))
	return r
}

// CoreID returns the CPU core this reactor is pinned to.
func (r *Reactor) CoreID() int {
	return r.coreID
}

// State returns the reactor's current lifecycle state.
func (r *Reactor) State() State {
	return State(r.state.Load())
}

func (r *Reactor) setState(s State) {
	r.state.Store(int32(s))
}

// Shutdown requests that the reactor's poll loop exit after its current
// iteration. It does not block for the loop to actually stop.
func (r *Reactor) Shutdown() {
	r.setState(StateShutdown)
}

// SendFuture enqueues a callback to run on this reactor, the next time
// it polls its future inbox. Safe to call from any core; this is the
// only supported way to hand work to a reactor from outside its own
// thread.
func (r *Reactor) SendFuture(f func()) {
	r.futureInbox.push(f)
}

// SpawnLocal appends a task to this reactor's local queue. Must only be
// called from within the reactor's own poll loop — from a task, from a
// logical thread message, or from a future delivered via SendFuture.
func (r *Reactor) SpawnLocal(t Task) {
	if cur := cores.Current(); cur != r.coreID {
		panic(fmt.Sprintf("reactor: SpawnLocal on core %d called from core %d", r.coreID, cur))
	}
	r.tasks = append(r.tasks, t)
}

// adopt moves a thread newly delivered via incoming into this reactor's
// owned thread list.
func (r *Reactor) adopt(t *lthread.LThread) {
	r.threads = append(r.threads, t)
}

// reap drops any threads that have signalled Exit.
func (r *Reactor) reap() {
	live := r.threads[:0]
	for _, t := range r.threads {
		if !t.Exited() {
			live = append(live, t)
		}
	}
	r.threads = live
}

// pollOnce runs exactly one iteration of the reactor's cooperative
// schedule:
//
//	(a) drain the future inbox and queue each as a one-shot task
//	(b) run every pending local task once, rescheduling the unfinished ones
//	(c) poll every owned logical thread's message queue
//	(d) adopt any threads newly delivered via incoming
func (r *Reactor) pollOnce() {
	for _, f := range r.futureInbox.drain() {
		r.tasks = append(r.tasks, Once(f))
	}

	pending := r.tasks
	r.tasks = nil
	for _, t := range pending {
		if !t() {
			r.tasks = append(r.tasks, t)
		}
	}

	for _, t := range r.threads {
		t.Poll()
	}

	for _, t := range r.incoming.drain() {
		r.adopt(t)
	}

	r.reap()
}

// pollTimes drives the reactor's owned logical threads n times without
// touching the future inbox, local task queue, or incoming list in
// between, then performs one full pollOnce. This is the reactor's main
// loop primitive: threads are polled eagerly on every tick, while the
// costlier future-inbox/task-queue/adoption bookkeeping only happens
// once every n ticks, amortizing it the way run's drive loop depends on.
func (r *Reactor) pollTimes(n int) {
	for i := 0; i < n; i++ {
		for _, t := range r.threads {
			t.Poll()
		}
	}
	r.pollOnce()
}

// threadSnapshot returns a defensive copy of the reactor's owned thread
// list, for tests that need to assert on adoption order.
func (r *Reactor) threadSnapshot() []*lthread.LThread {
	out := make([]*lthread.LThread, len(r.threads))
	copy(out, r.threads)
	return out
}

// Threads returns a defensive copy of the logical threads this reactor
// currently owns, in poll order.
func (r *Reactor) Threads() []*lthread.LThread {
	return r.threadSnapshot()
}

// PollOnce runs one iteration of the poll loop outside of run — used by
// callers driving a reactor manually (tests, or a future embedded in an
// external executor) rather than through LaunchPrimary/LaunchRemote.
func (r *Reactor) PollOnce() {
	r.pollOnce()
}
