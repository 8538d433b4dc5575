package minheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	var h []float64
	for _, v := range []float64{5, 1, 4, 1.5, 9, 0} {
		h = Push(h, v)
	}

	var popped []float64
	for len(h) > 0 {
		popped = append(popped, h[0])
		h = Pop(h)
	}
	assert.Equal(t, []float64{0, 1, 1.5, 4, 5, 9}, popped)
}

func TestBoundedKeepLargest(t *testing.T) {
	// Keep the 3 largest of a stream by evicting the minimum.
	var h []float64
	for _, v := range []float64{3, 7, 1, 9, 4, 8} {
		if len(h) < 3 {
			h = Push(h, v)
		} else if v > h[0] {
			h = Push(Pop(h), v)
		}
	}
	require.Len(t, h, 3)
	assert.Equal(t, 7.0, h[0])
}
