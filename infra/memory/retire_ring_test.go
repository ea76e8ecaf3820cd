package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetireRing_FIFO(t *testing.T) {
	r := NewRetireRing(4)
	require.True(t, r.Enqueue("a"))
	require.True(t, r.Enqueue("b"))
	require.Equal(t, "a", r.Dequeue())
	require.Equal(t, "b", r.Dequeue())
	require.Nil(t, r.Dequeue())
}

func TestRetireRing_FullDropsNew(t *testing.T) {
	r := NewRetireRing(2)
	require.True(t, r.Enqueue(1))
	require.True(t, r.Enqueue(2))
	require.False(t, r.Enqueue(3))
	require.Equal(t, 1, r.Dequeue())
	require.True(t, r.Enqueue(3))
}
