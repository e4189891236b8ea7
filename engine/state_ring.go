package engine

import (
	"github.com/automoto/ld51/game"
	"github.com/automoto/ld51/recorder"
)

const stateBufferSize = 64

// savedState is the rollback state at the start of a frame. The recorder
// position is part of it so re-simulated frames are not logged twice.
type savedState struct {
	frame    int
	world    game.Snapshot
	recorder recorder.Checkpoint
	valid    bool
}

// stateRing is a ring buffer of saved states indexed by frame.
type stateRing struct {
	states [stateBufferSize]savedState
}

// Store saves a state, replacing the frame stateBufferSize earlier.
func (r *stateRing) Store(frame int, world game.Snapshot, rec recorder.Checkpoint) {
	r.states[frame%stateBufferSize] = savedState{
		frame:    frame,
		world:    world,
		recorder: rec,
		valid:    true,
	}
}

// Get retrieves the state saved for frame. Returns false if not found or
// if the slot has been overwritten.
func (r *stateRing) Get(frame int) (savedState, bool) {
	if frame < 0 {
		return savedState{}, false
	}
	s := r.states[frame%stateBufferSize]
	if !s.valid || s.frame != frame {
		return savedState{}, false
	}
	return s, true
}
