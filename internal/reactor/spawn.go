package reactor

import (
	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/errs"
	"github.com/mayastor-io/io-engine-core/internal/lthread"
)

// SpawnAt posts f to thread's message queue and returns a channel that
// receives its result once thread is next polled by whichever reactor
// currently owns it. The channel is buffered so the reactor never
// blocks delivering the result.
func SpawnAt[R any](thread *lthread.LThread, f func() R) <-chan R {
	out := make(chan R, 1)
	thread.Post(func() {
		r := Current()
		if r == nil {
			// Posted messages only run from inside a reactor's own poll
			// loop, so this indicates a thread adopted outside the fleet.
			out <- f()
			return
		}
		r.SpawnLocal(Once(func() {
			out <- f()
		}))
	})
	return out
}

// SpawnAtPrimary is SpawnAt against the fleet's init thread, which is
// always adopted by the primary reactor.
func SpawnAtPrimary[R any](f func() R) <-chan R {
	return SpawnAt(InitThread(), f)
}

// BlockOn runs f on the primary reactor and busy-polls until it
// completes, returning its result. It must be called from the primary
// core itself — the original runtime's block_on is a control-plane
// primitive, never something a worker reactor calls on another's behalf.
func BlockOn[R any](f func() R) (R, error) {
	var zero R

	cur := cores.Current()
	if cur != cores.First() {
		return zero, errs.NewCoreError("BlockOn", cur, errs.CodeReactorConfigure, 0)
	}

	primary := Primary()
	out := make(chan R, 1)
	primary.SpawnLocal(Once(func() {
		out <- f()
	}))

	for {
		select {
		case r := <-out:
			return r, nil
		default:
			primary.pollOnce()
		}
	}
}
