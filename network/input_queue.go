package network

import (
	"math"

	"github.com/automoto/ld51/action"
)

const inputBufferSize = 128

type inputSlot struct {
	frame     int
	data      action.Encoded
	confirmed bool
}

// inputQueue is a ring buffer of one player's inputs indexed by frame.
// lastConfirmed is the highest frame up to which every input is known.
type inputQueue struct {
	slots         [inputBufferSize]inputSlot
	lastConfirmed int
	lastReceived  int
	disconnected  bool
}

// newInputQueue returns a queue whose frames below delay are confirmed Empty.
func newInputQueue(delay int) *inputQueue {
	q := &inputQueue{lastConfirmed: -1, lastReceived: -1}
	for f := 0; f < delay; f++ {
		q.confirm(f, action.Encoded{})
	}
	return q
}

// confirm stores the final input of frame. It reports false when the frame
// was already confirmed or lies outside the window the buffer can hold.
func (q *inputQueue) confirm(frame int, data action.Encoded) bool {
	if frame <= q.lastConfirmed || frame > q.lastConfirmed+inputBufferSize/2 {
		return false
	}
	if _, ok := q.get(frame); ok {
		return false
	}
	q.slots[frame%inputBufferSize] = inputSlot{frame: frame, data: data, confirmed: true}
	if frame > q.lastReceived {
		q.lastReceived = frame
	}
	for {
		next := q.lastConfirmed + 1
		if _, ok := q.get(next); !ok {
			break
		}
		q.lastConfirmed = next
	}
	return true
}

// get returns the confirmed input of frame.
func (q *inputQueue) get(frame int) (action.Encoded, bool) {
	if frame < 0 {
		return action.Encoded{}, false
	}
	s := q.slots[frame%inputBufferSize]
	if s.frame != frame || !s.confirmed {
		return action.Encoded{}, false
	}
	return s.data, true
}

// input returns the confirmed input of frame, or the Empty prediction.
// A disconnected player's missing inputs are final Empty inputs.
func (q *inputQueue) input(frame int) (data action.Encoded, predicted bool) {
	if d, ok := q.get(frame); ok {
		return d, false
	}
	if q.disconnected {
		return action.Encoded{}, false
	}
	return action.Encoded{}, true
}

// confirmedThrough reports the frontier used for prediction limits.
func (q *inputQueue) confirmedThrough() int {
	if q.disconnected {
		return math.MaxInt
	}
	return q.lastConfirmed
}
