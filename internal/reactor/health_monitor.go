package reactor

import (
	"sync/atomic"
	"time"

	"github.com/mayastor-io/io-engine-core/internal/logging"
	"github.com/mayastor-io/io-engine-core/internal/metrics"
)

// reactorHealth tracks one reactor's heartbeat progress against the
// monitor's global tick counter.
type reactorHealth struct {
	core        int
	frozen      atomic.Bool
	tickCounter atomic.Uint64
}

// HealthMonitor watches every reactor in the fleet for missed
// heartbeats. Each interval it enqueues a heartbeat future on every
// reactor that isn't currently believed frozen; a reactor whose counter
// falls timeout or more behind the monitor's own tick is marked
// frozen, and recovers once it catches its backlog of heartbeats back up
// to the current tick.
//
// The monitor's own pacing runs on an ordinary goroutine rather than as
// a reactor task: the reactor poll loop never blocks on a real timer, so
// the thing actually being verified (a reactor's cooperative task queue
// making progress) still flows entirely through SendFuture.
type HealthMonitor struct {
	timeout time.Duration
	healths map[int]*reactorHealth
	metrics map[int]*metrics.ReactorMetrics
	tick    atomic.Uint64
	stop    chan struct{}
	log     *logging.Logger
}

// StartHealthMonitor begins watching every reactor currently in the
// fleet. A reactor is considered frozen once it has missed timeout
// worth of heartbeats; timeout <= 0 defaults to 3 seconds.
func StartHealthMonitor(timeout time.Duration) *HealthMonitor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	hm := &HealthMonitor{
		timeout: timeout,
		healths: make(map[int]*reactorHealth),
		metrics: make(map[int]*metrics.ReactorMetrics),
		stop:    make(chan struct{}),
		log:     logging.Default(),
	}
	for _, r := range Iter() {
		hm.healths[r.CoreID()] = &reactorHealth{core: r.CoreID()}
		hm.metrics[r.CoreID()] = &metrics.ReactorMetrics{}
	}
	go hm.run()
	return hm
}

// Metrics returns the freeze/recovery counters for the reactor on core,
// or nil if the monitor isn't watching it.
func (hm *HealthMonitor) Metrics(core int) *metrics.ReactorMetrics {
	return hm.metrics[core]
}

func (hm *HealthMonitor) run() {
	interval := time.Second
	missedLimit := uint64(hm.timeout / interval)
	if missedLimit == 0 {
		missedLimit = 1
	}

	for {
		select {
		case <-hm.stop:
			return
		default:
		}

		for _, r := range Iter() {
			h := hm.healths[r.CoreID()]
			if h == nil {
				continue
			}
			if h.frozen.Load() {
				h.tickCounter.Add(1)
				continue
			}
			r.SendFuture(func() { h.tickCounter.Add(1) })
		}

		timer := time.NewTimer(interval)
		select {
		case <-hm.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		tick := hm.tick.Add(1)
		for _, r := range Iter() {
			h := hm.healths[r.CoreID()]
			if h == nil {
				continue
			}
			delta := tick - h.tickCounter.Load()
			switch {
			case !h.frozen.Load() && delta >= missedLimit:
				h.frozen.Store(true)
				hm.metrics[r.CoreID()].ObserveFrozen(delta)
				hm.log.WithCore(r.CoreID()).Warnf("reactor frozen: missed %d heartbeats", delta)
			case h.frozen.Load() && delta == 0:
				h.frozen.Store(false)
				hm.metrics[r.CoreID()].ObserveRecovered()
				hm.log.WithCore(r.CoreID()).Infof("reactor recovered")
			}
		}
	}
}

// Stop ends the monitor's background goroutine. Safe to call once.
func (hm *HealthMonitor) Stop() {
	close(hm.stop)
}

// Frozen reports whether the reactor on core is currently believed
// frozen. Returns false for a core the monitor isn't watching.
func (hm *HealthMonitor) Frozen(core int) bool {
	h := hm.healths[core]
	if h == nil {
		return false
	}
	return h.frozen.Load()
}
