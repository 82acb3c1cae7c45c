package cores

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetForTestAndFirst(t *testing.T) {
	ResetForTest([]int{2, 4, 6})
	require.Equal(t, []int{2, 4, 6}, All())
	require.Equal(t, 3, Count())
	require.Equal(t, 2, First())
	require.True(t, IsEnabled(4))
	require.False(t, IsEnabled(5))
}

func TestInitIsIdempotent(t *testing.T) {
	ResetForTest([]int{0})
	first := All()
	Init()
	Init()
	require.Equal(t, first, All())
}
