package nexus

import (
	"fmt"
	"runtime"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/reactor"
)

// pinToReactorCore pins the test goroutine's OS thread to core and
// builds a single-reactor fleet, satisfying requireReactorContext the
// way a real caller running inside a reactor's poll loop would.
func pinToReactorCore(t *testing.T, core int) {
	t.Helper()
	cores.ResetForTest([]int{core})
	reactor.ResetForTest()
	reactor.Init()
	t.Cleanup(reactor.ResetForTest)

	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	var mask unix.CPUSet
	mask.Set(core)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		t.Fatalf("failed to pin test goroutine to core %d: %v", core, err)
	}
}

var closeCount int

type fakeHandle struct {
	name      string
	writeOnly bool
}

func (h *fakeHandle) DeviceName() string { return h.name }
func (h *fakeHandle) ReadAt(p []byte, off int64) (int, error) {
	if h.writeOnly {
		return 0, fmt.Errorf("%s: read on a write-only handle", h.name)
	}
	return len(p), nil
}
func (h *fakeHandle) WriteAt(p []byte, off int64) (int, error) { return len(p), nil }
func (h *fakeHandle) Close() error                             { closeCount++; return nil }

// fakeDevice backs a Child in tests. failOpen forces Open to fail, used
// to exercise the CantOpen fault path.
type fakeDevice struct {
	name     string
	failOpen bool
}

func (d *fakeDevice) Open() (IOHandle, IOHandle, error) {
	if d.failOpen {
		return nil, nil, fmt.Errorf("%s: open failed", d.name)
	}
	return &fakeHandle{name: d.name}, &fakeHandle{name: d.name}, nil
}

func newOpenChild(name string) *Child {
	c := NewChild(name, &fakeDevice{name: name})
	c.SetState(ChildOpen)
	return c
}
