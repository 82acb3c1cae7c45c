package lthread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmitsEmptyMaskAcceptsAnyCore(t *testing.T) {
	th := New("init_thread", nil)
	require.True(t, th.Admits(0))
	require.True(t, th.Admits(7))
}

func TestAdmitsRespectsCPUMask(t *testing.T) {
	th := New("worker", []int{1, 3})
	require.True(t, th.Admits(1))
	require.True(t, th.Admits(3))
	require.False(t, th.Admits(2))
}

func TestPostAndPollDrainsInOrder(t *testing.T) {
	th := New("t", nil)
	var order []int
	th.Post(func() { order = append(order, 1) })
	th.Post(func() { order = append(order, 2) })

	th.Poll()
	require.Equal(t, []int{1, 2}, order)

	// A second poll with no new messages runs nothing.
	th.Poll()
	require.Equal(t, []int{1, 2}, order)
}

func TestExit(t *testing.T) {
	th := New("t", nil)
	require.False(t, th.Exited())
	th.Exit()
	require.True(t, th.Exited())
}

func TestUniqueIDs(t *testing.T) {
	a := New("a", nil)
	b := New("b", nil)
	require.NotEqual(t, a.ID, b.ID)
}
