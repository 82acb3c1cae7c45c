package ioengine

import (
	"time"

	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/lthread"
	"github.com/mayastor-io/io-engine-core/internal/nexus"
	"github.com/mayastor-io/io-engine-core/internal/reactor"
)

// Engine is the handle on a booted reactor fleet and its health monitor:
// the facade the rest of a real data-plane process (gRPC service, CLI,
// config loader — all out of scope here) would hold onto after bootstrap.
// It holds no nexus; channels are built with NewNexusChannel.
type Engine struct {
	Health *reactor.HealthMonitor
}

// Bootstrap builds the reactor fleet (one reactor per enabled core),
// starts the health monitor on its own background goroutine (it is not a
// task on the primary reactor), and spawns every
// non-primary reactor in the background. It returns once every remote
// reactor has confirmed its core pin succeeded; the caller is still
// responsible for calling LaunchPrimary (typically the last call made
// on the process's main goroutine, since it blocks until shutdown).
func Bootstrap(healthTimeout time.Duration) (*Engine, error) {
	cores.Init()
	reactor.Init()

	for _, c := range cores.All() {
		if c == cores.First() {
			continue
		}
		if err := reactor.LaunchRemote(c); err != nil {
			return nil, err
		}
	}

	return &Engine{
		Health: reactor.StartHealthMonitor(healthTimeout),
	}, nil
}

// Run pins the calling goroutine to the primary core and runs its
// reactor's poll loop until Shutdown is called. Intended to be the last
// call on a process's main goroutine.
func (e *Engine) Run() error {
	return reactor.LaunchPrimary()
}

// Shutdown requests every reactor in the fleet stop at its next poll
// loop iteration and stops the health monitor.
func (e *Engine) Shutdown() {
	for _, r := range reactor.Iter() {
		r.Shutdown()
	}
	e.Health.Stop()
}

// NewThread creates and schedules a logical thread bound to cpuMask
// (nil admits any core) onto whichever reactor is eligible first.
func NewThread(name string, cpuMask []int) (*lthread.LThread, error) {
	t := lthread.New(name, cpuMask)
	if err := reactor.ScheduleThread(t); err != nil {
		return nil, err
	}
	return t, nil
}

// NewNexusChannel builds a nexus.Channel for n on the calling core. It
// must be called from inside a reactor's own poll loop — typically via
// SpawnAtPrimary or BlockOn from external bootstrap code.
func NewNexusChannel(n *nexus.Nexus) *nexus.Channel {
	return nexus.NewChannel(n)
}
