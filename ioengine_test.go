package ioengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mayastor-io/io-engine-core/internal/cores"
	"github.com/mayastor-io/io-engine-core/internal/reactor"
)

func TestBootstrapLaunchesRemoteReactorsAndHealthMonitor(t *testing.T) {
	cores.ResetForTest([]int{0, 1})
	reactor.ResetForTest()
	t.Cleanup(reactor.ResetForTest)

	engine, err := Bootstrap(time.Second)
	require.NoError(t, err)
	require.NotNil(t, engine.Health)

	done := make(chan error, 1)
	go func() { done <- engine.Run() }()

	require.Eventually(t, func() bool {
		return reactor.Primary().State() == reactor.StateRunning
	}, 2*time.Second, 10*time.Millisecond)

	engine.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for engine to shut down")
	}
}

func TestNewThreadSchedulesOntoAdmissibleReactor(t *testing.T) {
	cores.ResetForTest([]int{0, 1, 2})
	reactor.ResetForTest()
	reactor.Init()
	t.Cleanup(reactor.ResetForTest)

	th, err := NewThread("worker", []int{2})
	require.NoError(t, err)

	r, ok := reactor.GetByCore(2)
	require.True(t, ok)

	r.PollOnce()
	owned := r.Threads()
	require.Len(t, owned, 1)
	require.Equal(t, th, owned[0])
}
