package reactor

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLaunchPrimaryRunsSpawnedWork(t *testing.T) {
	setupFleet(t, []int{0})

	done := make(chan error, 1)
	go func() { done <- LaunchPrimary() }()

	out := SpawnAtPrimary(func() int { return 42 })
	select {
	case v := <-out:
		require.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for spawned result")
	}

	Primary().Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for LaunchPrimary to return")
	}
}

func TestBlockOnRunsOnPrimaryCore(t *testing.T) {
	setupFleet(t, []int{0})

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	var mask unix.CPUSet
	mask.Set(0)
	require.NoError(t, unix.SchedSetaffinity(0, &mask))

	result, err := BlockOn(func() int { return 7 })
	require.NoError(t, err)
	require.Equal(t, 7, result)
}

func TestBlockOnFailsOffPrimaryCore(t *testing.T) {
	setupFleet(t, []int{0, 1})

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	var mask unix.CPUSet
	mask.Set(1)
	require.NoError(t, unix.SchedSetaffinity(0, &mask))

	_, err := BlockOn(func() int { return 1 })
	require.Error(t, err)
}
