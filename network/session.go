package network

import (
	"errors"
	"time"

	"github.com/automoto/ld51/action"
)

var (
	// ErrPredictionThreshold is returned by AdvanceFrame when advancing would
	// simulate further ahead of the confirmed inputs than allowed. The frame
	// is not advanced; try again on the next tick.
	ErrPredictionThreshold = errors.New("prediction threshold reached")
	// ErrInvalidHandle is returned for a player handle outside the session.
	ErrInvalidHandle = errors.New("invalid player handle")
	// ErrNotConnected is returned when a transport has no live connection.
	ErrNotConnected = errors.New("not connected")
)

// Session exchanges per-frame inputs between participants and tells the
// host which frames to save, load and advance.
type Session interface {
	// AdvanceFrame submits the local input for the next frame and returns
	// the requests the host must carry out, in order.
	AdvanceFrame(local action.Encoded) ([]Request, error)
	// ConfirmedFrame is the highest frame whose inputs are final for every
	// participant, or -1.
	ConfirmedFrame() int
	// ReportChecksum records the state checksum at the start of frame.
	ReportChecksum(frame int, sum uint64)
	// Events drains the pending session events.
	Events() []Event
	// Stats returns the connection statistics of a remote player.
	Stats(handle int) (NetworkStats, error)
	NumPlayers() int
}

// Request is one step of the host side of a rollback session.
type Request interface {
	isRequest()
}

// SaveState asks the host to store its state as the state at the start of Frame.
type SaveState struct {
	Frame int
}

// LoadState asks the host to restore the state saved for Frame.
type LoadState struct {
	Frame int
}

// AdvanceFrame asks the host to simulate Frame with one input per player,
// in handle order. Rollback is set while re-simulating a corrected frame.
type AdvanceFrame struct {
	Frame    int
	Inputs   []action.Encoded
	Rollback bool
}

func (SaveState) isRequest()    {}
func (LoadState) isRequest()    {}
func (AdvanceFrame) isRequest() {}

type EventKind int

const (
	EventDisconnected EventKind = iota
	EventDesync
)

func (k EventKind) String() string {
	switch k {
	case EventDisconnected:
		return "disconnected"
	case EventDesync:
		return "desync"
	}
	return "unknown"
}

// Event reports a change in the session the host may want to surface.
type Event struct {
	Kind   EventKind
	Handle int
	Frame  int
	Local  uint64 // Desync only
	Remote uint64 // Desync only
}

// NetworkStats describes the link to one remote player.
type NetworkStats struct {
	InputsReceived uint64
	LastFrame      int           // Latest input frame received
	FramesBehind   int           // Local frame minus the peer's latest confirmed frame
	SinceReceived  time.Duration // Time since the last message
	Disconnected   bool
	Rollbacks      uint64 // Session wide
	RollbackFrames uint64 // Session wide
}
