package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/automoto/ld51/action"
)

func TestInputQueueDelayFramesAreEmpty(t *testing.T) {
	q := newInputQueue(3)
	assert.Equal(t, 2, q.lastConfirmed)

	for f := 0; f < 3; f++ {
		data, ok := q.get(f)
		assert.True(t, ok)
		assert.Equal(t, action.Encoded{}, data)
	}
	_, ok := q.get(3)
	assert.False(t, ok)
}

func TestInputQueueConfirmsContiguously(t *testing.T) {
	q := newInputQueue(0)
	a := action.Encode(action.BlasterPlace(1, 1))

	assert.True(t, q.confirm(1, a))
	assert.Equal(t, -1, q.lastConfirmed)
	assert.Equal(t, 1, q.lastReceived)

	assert.True(t, q.confirm(0, action.Encoded{}))
	assert.Equal(t, 1, q.lastConfirmed)

	assert.False(t, q.confirm(1, action.Encoded{}), "duplicate")
	data, _ := q.get(1)
	assert.Equal(t, a, data)
}

func TestInputQueueRejectsFramesOutsideWindow(t *testing.T) {
	q := newInputQueue(0)
	assert.False(t, q.confirm(-1, action.Encoded{}))
	assert.False(t, q.confirm(inputBufferSize, action.Encoded{}))
	assert.True(t, q.confirm(inputBufferSize/2-1, action.Encoded{}))
}

func TestInputQueuePredictsEmpty(t *testing.T) {
	q := newInputQueue(0)
	data, predicted := q.input(5)
	assert.True(t, predicted)
	assert.Equal(t, action.Encoded{}, data)

	q.disconnected = true
	_, predicted = q.input(5)
	assert.False(t, predicted)
}
