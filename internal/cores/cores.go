// Package cores enumerates the CPU cores this process is allowed to run
// reactors on. It is read-only after Init.
package cores

import (
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	once sync.Once
	all  []int
)

// maxProbedCPU bounds the CPUSet scan; Linux's default CPU_SETSIZE is
// 1024, comfortably above any core count this process could observe.
const maxProbedCPU = 1024

// Init discovers the enabled CPU cores, honoring the process's current
// scheduling affinity mask (so a container with a restricted cpuset gets
// the restriction, not the host's full core count). Safe to call more
// than once; only the first call has effect.
func Init() {
	once.Do(func() {
		var mask unix.CPUSet
		if err := unix.SchedGetaffinity(0, &mask); err != nil {
			all = sequential(runtime.NumCPU())
			return
		}
		var enabled []int
		for c := 0; c < maxProbedCPU; c++ {
			if mask.IsSet(c) {
				enabled = append(enabled, c)
			}
		}
		if len(enabled) == 0 {
			enabled = sequential(runtime.NumCPU())
		}
		all = enabled
	})
}

func sequential(n int) []int {
	cores := make([]int, n)
	for i := range cores {
		cores[i] = i
	}
	return cores
}

// ResetForTest is a test-only hook that forces re-initialization with a
// fixed set of cores, bypassing affinity discovery. The cores are stored
// in ascending order, as discovery would report them.
func ResetForTest(cores []int) {
	sorted := append([]int(nil), cores...)
	sort.Ints(sorted)
	once = sync.Once{}
	once.Do(func() { all = sorted })
}

// Count returns the number of enabled cores.
func Count() int {
	Init()
	return len(all)
}

// All returns the enabled cores in ascending order. The returned slice
// must not be mutated by callers.
func All() []int {
	Init()
	return all
}

// First returns the primary core: the lowest-numbered enabled core.
func First() int {
	Init()
	if len(all) == 0 {
		return 0
	}
	return all[0]
}

// IsEnabled reports whether core is one of the admissible cores.
func IsEnabled(core int) bool {
	Init()
	for _, c := range all {
		if c == core {
			return true
		}
	}
	return false
}

// Current returns the core the calling OS thread is currently pinned to,
// or -1 if that cannot be determined (e.g. the thread has no affinity
// restriction, or affinity cannot be read on this platform). Callers that
// need a stable answer must have called runtime.LockOSThread and pinned
// themselves to a single core first.
func Current() int {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return -1
	}
	if mask.Count() != 1 {
		return -1
	}
	for c := 0; c < maxProbedCPU; c++ {
		if mask.IsSet(c) {
			return c
		}
	}
	return -1
}
