package reactor

import (
	"runtime"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/errs"
	"github.com/mayastor-io/io-engine-core/internal/lthread"
	"github.com/mayastor-io/io-engine-core/internal/logging"
)

// Fleet is the process-wide set of reactors, one per enabled core. There
// is exactly one fleet per process, built lazily on first Init call —
// mirroring the original runtime's static reactor table.
type Fleet struct {
	reactors map[int]*Reactor
	order    []int // core ids, ascending

	initThread *lthread.LThread

	remoteWG sync.WaitGroup
}

var (
	fleetOnce sync.Once
	fleet     *Fleet
)

// Init builds the fleet: one reactor per core reported by cores.All.
// Safe to call more than once; only the first call has effect.
func Init() *Fleet {
	fleetOnce.Do(func() {
		cores.Init()

		f := &Fleet{reactors: make(map[int]*Reactor)}
		for _, c := range cores.All() {
			f.reactors[c] = newReactor(c)
			f.order = append(f.order, c)
		}
		f.initThread = lthread.New("init_thread", []int{cores.First()})
		fleet = f

		if err := scheduleThread(f.initThread); err != nil {
			logging.Default().Errorf("failed to schedule init_thread: %v", err)
		}
	})
	return fleet
}

// resetForTest tears down the singleton fleet so tests can rebuild it
// against a fixed core set. Not exported; test-only.
func resetForTest() {
	fleetOnce = sync.Once{}
	fleet = nil
}

// ResetForTest tears down the singleton fleet so tests in other packages
// can rebuild it against a fixed core set via Init. Test-only.
func ResetForTest() {
	resetForTest()
}

func mustFleet() *Fleet {
	if fleet == nil {
		panic("reactor: fleet not initialized; call reactor.Init first")
	}
	return fleet
}

// GetByCore returns the reactor pinned to the given core, if any.
func GetByCore(core int) (*Reactor, bool) {
	f := mustFleet()
	r, ok := f.reactors[core]
	return r, ok
}

// Primary returns the reactor pinned to the lowest enabled core, which
// hosts the control plane and is the only reactor BlockOn may be called
// from.
func Primary() *Reactor {
	r, _ := GetByCore(cores.First())
	return r
}

// Current returns the reactor running on the calling OS thread's pinned
// core, or nil if the calling thread either isn't pinned to exactly one
// core or that core has no reactor.
func Current() *Reactor {
	c := cores.Current()
	if c < 0 {
		return nil
	}
	r, ok := GetByCore(c)
	if !ok {
		return nil
	}
	return r
}

// Iter returns every reactor in ascending core order.
func Iter() []*Reactor {
	f := mustFleet()
	out := make([]*Reactor, len(f.order))
	for i, c := range f.order {
		out[i] = f.reactors[c]
	}
	return out
}

// InitThread returns the fleet-wide init thread, adopted by the primary
// reactor on its first poll.
func InitThread() *lthread.LThread {
	return mustFleet().initThread
}

// scheduleThread is the Go stand-in for the original runtime's can_op /
// do_op callback pair used by its generic thread library to pick a
// reactor for a new logical thread: no external thread-registration API
// exists to port here, so dispatch is inlined as a direct scan over
// Iter() for the first reactor that admits the thread's CPU mask.
func scheduleThread(t *lthread.LThread) error {
	for _, r := range Iter() {
		if t.Admits(r.CoreID()) {
			r.incoming.push(t)
			return nil
		}
	}
	return errs.NewError("ScheduleThread", errs.CodeSpawnDispatch, "no reactor admits thread "+t.Name)
}

// ScheduleThread hands a logical thread to the fleet for adoption by an
// admissible reactor. The thread is actually appended to that reactor's
// thread list on its next poll, not synchronously.
func ScheduleThread(t *lthread.LThread) error {
	return scheduleThread(t)
}

// LaunchPrimary pins the calling goroutine's OS thread to the primary
// core and runs that reactor's poll loop until Shutdown. It blocks until
// every remote reactor launched via LaunchRemote has also returned.
func LaunchPrimary() error {
	f := mustFleet()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	primaryCore := cores.First()
	var mask unix.CPUSet
	mask.Set(primaryCore)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return errs.NewCoreError("LaunchPrimary", primaryCore, errs.CodeReactorConfigure, toErrno(err))
	}

	primary := Primary()
	primary.run()

	f.remoteWG.Wait()
	return nil
}

// LaunchRemote pins a new goroutine's OS thread to core and runs that
// reactor's poll loop in the background. It returns once the pinning
// attempt has either succeeded or failed; it does not wait for the
// remote reactor's loop to exit — LaunchPrimary does that.
func LaunchRemote(core int) error {
	f := mustFleet()

	if core == cores.First() {
		// The primary core is driven by LaunchPrimary; launching it here
		// too would pin a second OS thread onto a core that already has
		// one, racing the same reactor's poll loop from two goroutines.
		return nil
	}

	if !cores.IsEnabled(core) {
		return errs.NewCoreError("LaunchRemote", core, errs.CodeReactorConfigure, syscall.ENOSYS)
	}
	r, ok := GetByCore(core)
	if !ok {
		return errs.NewCoreError("LaunchRemote", core, errs.CodeReactorConfigure, syscall.ENOSYS)
	}

	pinned := make(chan error, 1)
	f.remoteWG.Add(1)
	go func() {
		defer f.remoteWG.Done()

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var mask unix.CPUSet
		mask.Set(core)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			pinned <- errs.NewCoreError("LaunchRemote", core, errs.CodeReactorConfigure, toErrno(err))
			return
		}
		pinned <- nil
		r.run()
	}()

	return <-pinned
}

func toErrno(err error) syscall.Errno {
	if errno, ok := err.(syscall.Errno); ok {
		return errno
	}
	return syscall.EINVAL
}
