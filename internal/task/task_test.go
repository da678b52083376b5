package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyQueueFIFO(t *testing.T) {
	q := NewReadyQueue(4)
	a := New(1, 0, nil, nil)
	b := New(2, 0, nil, nil)
	require.True(t, q.Push(a))
	require.True(t, q.Push(b))
	assert.Equal(t, 2, q.Len())
	assert.Same(t, a, q.Pop())
	assert.Same(t, b, q.Pop())
	assert.Nil(t, q.Pop())
}

func TestReadyQueueCapacity(t *testing.T) {
	q := NewReadyQueue(1)
	require.True(t, q.Push(New(1, 0, nil, nil)))
	assert.False(t, q.Push(New(2, 0, nil, nil)))
}

func TestDelayHeapOrdersByExpiry(t *testing.T) {
	h := NewDelayHeap()
	t3 := New(3, 0, nil, nil)
	t3.Expiry = 300
	t1 := New(1, 0, nil, nil)
	t1.Expiry = 100
	t2 := New(2, 0, nil, nil)
	t2.Expiry = 200

	h.Push(t3)
	h.Push(t1)
	h.Push(t2)

	exp, ok := h.PeekExpiry()
	require.True(t, ok)
	assert.Equal(t, uint64(100), exp)

	assert.Same(t, t1, h.Pop())
	assert.Same(t, t2, h.Pop())
	assert.Same(t, t3, h.Pop())
	assert.Equal(t, 0, h.Len())
}

func TestBlockListRemoveMatch(t *testing.T) {
	b := NewBlockList()
	a := New(1, 0, nil, nil)
	x := New(2, 0, nil, nil)
	b.Add(a)
	b.Add(x)

	found := b.RemoveMatch(func(t *Task) bool { return t.ID == 2 })
	require.NotNil(t, found)
	assert.Equal(t, uint32(2), found.ID)
	assert.Equal(t, 1, b.Len())

	assert.Nil(t, b.RemoveMatch(func(t *Task) bool { return t.ID == 99 }))
}
