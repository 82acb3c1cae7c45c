package reactor

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// run drives the reactor's poll loop until its state is set to
// StateShutdown, then gives every owned thread one last poll to drain its
// message queue and drops them all. It must be called from the
// goroutine that has already pinned itself to this reactor's core.
func (r *Reactor) run() {
	r.tid.Store(int64(unix.Gettid()))

	if _, delayed := os.LookupEnv("MAYASTOR_DELAY"); delayed {
		r.setState(StateDelayed)
	} else {
		r.setState(StateRunning)
	}

	for r.State() != StateShutdown {
		if r.State() == StateDelayed {
			time.Sleep(time.Millisecond)
		}
		r.pollTimes(3)
	}

	for _, t := range r.threads {
		t.Poll()
	}
	r.threads = nil
}
