package network

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/shared/messages"
)

// SpectatorHandle is the LocalHandle of a session that only watches.
const SpectatorHandle = -1

// Checksums are exchanged for every frame that is a multiple of this.
const checksumInterval = 30

// SessionConfig describes a peer-to-peer rollback session.
type SessionConfig struct {
	NumPlayers        int
	LocalHandle       int // SpectatorHandle when watching
	InputDelay        int // Frames between submitting and applying local input
	MaxPrediction     int // Frames that may be simulated past the confirmed frame
	DisconnectTimeout time.Duration
}

// DefaultSessionConfig returns a session for players using the network
// defaults from config.Net.
func DefaultSessionConfig(players, localHandle int) SessionConfig {
	return SessionConfig{
		NumPlayers:        players,
		LocalHandle:       localHandle,
		InputDelay:        config.Net.InputDelay,
		MaxPrediction:     config.Net.MaxPrediction,
		DisconnectTimeout: config.Net.DisconnectTimeout,
	}
}

type frameSum struct {
	frame int
	sum   uint64
	ok    bool
}

type usedInputs struct {
	frame     int
	inputs    []action.Encoded
	predicted []bool
}

type peerState struct {
	lastRecv time.Time
	received uint64
	acked    int // Highest local frame the peer holds every input through
	sums     [inputBufferSize]frameSum
}

// P2PSession is a rollback session where every participant simulates the
// full game. Missing remote inputs are predicted as Empty; a confirmed
// input that contradicts a prediction rolls the host back to that frame.
type P2PSession struct {
	cfg       SessionConfig
	transport Transport
	now       func() time.Time
	log       *logrus.Entry

	players []*inputQueue
	peers   []peerState
	used    [inputBufferSize]usedInputs

	frame          int // Next frame to simulate
	firstIncorrect int
	finalFrame     int // Highest frame whose saved state can no longer change
	localSums      [inputBufferSize]frameSum
	lastSumSent    int

	events         []Event
	rollbacks      uint64
	rollbackFrames uint64
}

// NewP2PSession returns a session exchanging inputs over transport.
func NewP2PSession(cfg SessionConfig, transport Transport) (*P2PSession, error) {
	if cfg.NumPlayers < 1 {
		return nil, fmt.Errorf("session needs at least one player, got %d", cfg.NumPlayers)
	}
	if cfg.LocalHandle < SpectatorHandle || cfg.LocalHandle >= cfg.NumPlayers {
		return nil, fmt.Errorf("%w: local handle %d with %d players", ErrInvalidHandle, cfg.LocalHandle, cfg.NumPlayers)
	}
	if cfg.InputDelay < 0 || cfg.MaxPrediction < 0 {
		return nil, fmt.Errorf("input delay and max prediction must not be negative")
	}
	if cfg.InputDelay+cfg.MaxPrediction >= inputBufferSize/2 {
		return nil, fmt.Errorf("input delay %d plus max prediction %d exceeds %d frames",
			cfg.InputDelay, cfg.MaxPrediction, inputBufferSize/2-1)
	}
	if cfg.NumPlayers > 1 && cfg.InputDelay+cfg.MaxPrediction < 1 {
		return nil, fmt.Errorf("%d players need input delay or max prediction above zero", cfg.NumPlayers)
	}
	if transport == nil {
		return nil, fmt.Errorf("session needs a transport")
	}

	s := &P2PSession{
		cfg:            cfg,
		transport:      transport,
		now:            time.Now,
		log:            logger.Component("network").WithField("handle", cfg.LocalHandle),
		players:        make([]*inputQueue, cfg.NumPlayers),
		peers:          make([]peerState, cfg.NumPlayers),
		firstIncorrect: -1,
		finalFrame:     -1,
		lastSumSent:    -1,
	}
	start := s.now()
	for h := range s.players {
		s.players[h] = newInputQueue(cfg.InputDelay)
		s.peers[h].lastRecv = start
		s.peers[h].acked = cfg.InputDelay - 1
	}
	for i := range s.used {
		s.used[i].frame = -1
	}
	return s, nil
}

func (s *P2PSession) spectator() bool {
	return s.cfg.LocalHandle == SpectatorHandle
}

// NumPlayers returns the number of players, spectators excluded.
func (s *P2PSession) NumPlayers() int {
	return s.cfg.NumPlayers
}

// LocalHandle returns the local player handle or SpectatorHandle.
func (s *P2PSession) LocalHandle() int {
	return s.cfg.LocalHandle
}

// CurrentFrame returns the next frame to be simulated.
func (s *P2PSession) CurrentFrame() int {
	return s.frame
}

// ConfirmedFrame returns the highest frame with every input final.
func (s *P2PSession) ConfirmedFrame() int {
	confirmed := s.players[0].confirmedThrough()
	for _, q := range s.players[1:] {
		confirmed = min(confirmed, q.confirmedThrough())
	}
	return confirmed
}

// AdvanceFrame polls the transport, submits local for the frame InputDelay
// ahead and returns the requests to carry out. When a remote input
// contradicted a prediction the requests start with a LoadState and
// re-simulate every frame since. Spectators pass Empty and only advance
// through confirmed frames.
func (s *P2PSession) AdvanceFrame(local action.Encoded) ([]Request, error) {
	s.checkDesync()
	s.poll()
	s.checkTimeouts()

	limit := s.cfg.MaxPrediction
	if s.spectator() {
		limit = 0
	}
	if s.frame-s.frontier() > limit {
		s.keepAlive()
		return nil, ErrPredictionThreshold
	}

	if !s.spectator() {
		s.players[s.cfg.LocalHandle].confirm(s.frame+s.cfg.InputDelay, local)
		s.sendInputs()
	}

	var reqs []Request
	if s.firstIncorrect >= 0 && s.firstIncorrect < s.frame {
		from := s.firstIncorrect
		reqs = append(reqs, LoadState{Frame: from})
		for g := from; g < s.frame; g++ {
			if g > from {
				reqs = append(reqs, SaveState{Frame: g})
			}
			reqs = append(reqs, s.advance(g, true))
		}
		s.rollbacks++
		s.rollbackFrames += uint64(s.frame - from)
		s.log.WithFields(logrus.Fields{
			"from":   from,
			"frames": s.frame - from,
		}).Debug("rollback")
	}
	s.firstIncorrect = -1

	reqs = append(reqs, SaveState{Frame: s.frame}, s.advance(s.frame, false))
	s.frame++
	s.finalFrame = s.frame - 1
	if c := s.ConfirmedFrame(); c < s.finalFrame-1 {
		s.finalFrame = c + 1
	}
	return reqs, nil
}

// frontier is ConfirmedFrame with the local input of the current frame
// counted as submitted. A stalled call submits nothing, so the caller keeps
// its input for the retry.
func (s *P2PSession) frontier() int {
	f := math.MaxInt
	for h, q := range s.players {
		c := q.confirmedThrough()
		if h == s.cfg.LocalHandle {
			c = max(c, s.frame+s.cfg.InputDelay)
		}
		f = min(f, c)
	}
	return f
}

func (s *P2PSession) advance(frame int, rollback bool) AdvanceFrame {
	inputs := make([]action.Encoded, len(s.players))
	predicted := make([]bool, len(s.players))
	for h, q := range s.players {
		inputs[h], predicted[h] = q.input(frame)
	}
	s.used[frame%inputBufferSize] = usedInputs{
		frame:     frame,
		inputs:    append([]action.Encoded(nil), inputs...),
		predicted: predicted,
	}
	return AdvanceFrame{Frame: frame, Inputs: inputs, Rollback: rollback}
}

// ReportChecksum records the checksum of the state saved for frame.
func (s *P2PSession) ReportChecksum(frame int, sum uint64) {
	if frame < 0 {
		return
	}
	s.localSums[frame%inputBufferSize] = frameSum{frame: frame, sum: sum, ok: true}
}

func (s *P2PSession) localSum(frame int) (uint64, bool) {
	fs := s.localSums[frame%inputBufferSize]
	if !fs.ok || fs.frame != frame {
		return 0, false
	}
	return fs.sum, true
}

// Events drains the pending events.
func (s *P2PSession) Events() []Event {
	out := s.events
	s.events = nil
	return out
}

// Stats returns the link statistics for a remote player.
func (s *P2PSession) Stats(handle int) (NetworkStats, error) {
	if handle < 0 || handle >= s.cfg.NumPlayers || handle == s.cfg.LocalHandle {
		return NetworkStats{}, fmt.Errorf("%w: %d", ErrInvalidHandle, handle)
	}
	q := s.players[handle]
	p := s.peers[handle]
	return NetworkStats{
		InputsReceived: p.received,
		LastFrame:      q.lastReceived,
		FramesBehind:   s.frame - 1 - q.lastConfirmed,
		SinceReceived:  s.now().Sub(p.lastRecv),
		Disconnected:   q.disconnected,
		Rollbacks:      s.rollbacks,
		RollbackFrames: s.rollbackFrames,
	}, nil
}

func (s *P2PSession) poll() {
	for _, msg := range s.transport.Poll() {
		h := msg.Handle
		if h < 0 || h >= s.cfg.NumPlayers || h == s.cfg.LocalHandle {
			continue
		}
		s.peers[h].lastRecv = s.now()
		s.peers[h].received++
		if local := s.cfg.LocalHandle; local >= 0 && local < len(msg.Acks) {
			s.peers[h].acked = max(s.peers[h].acked, msg.Acks[local])
		}

		q := s.players[h]
		if q.disconnected {
			continue
		}
		for i, data := range msg.Inputs {
			frame := msg.Frame + i
			if q.confirm(frame, data) {
				s.checkPrediction(h, frame, data)
			}
		}
		if msg.HasChecksum && msg.ChecksumFrame >= 0 {
			s.peers[h].sums[msg.ChecksumFrame%inputBufferSize] = frameSum{
				frame: msg.ChecksumFrame,
				sum:   msg.Checksum,
				ok:    true,
			}
		}
	}
}

// checkPrediction marks frame for rollback when it was simulated with a
// predicted input for h other than data.
func (s *P2PSession) checkPrediction(h, frame int, data action.Encoded) {
	if frame >= s.frame {
		return
	}
	u := &s.used[frame%inputBufferSize]
	if u.frame != frame || !u.predicted[h] {
		return
	}
	u.predicted[h] = false
	if u.inputs[h] == data {
		return
	}
	if s.firstIncorrect < 0 || frame < s.firstIncorrect {
		s.firstIncorrect = frame
	}
}

func (s *P2PSession) checkTimeouts() {
	if s.cfg.DisconnectTimeout <= 0 {
		return
	}
	now := s.now()
	for h, q := range s.players {
		if h == s.cfg.LocalHandle || q.disconnected {
			continue
		}
		if now.Sub(s.peers[h].lastRecv) <= s.cfg.DisconnectTimeout {
			continue
		}
		q.disconnected = true
		s.events = append(s.events, Event{Kind: EventDisconnected, Handle: h, Frame: s.frame})
		s.log.WithFields(logrus.Fields{
			"peer":           h,
			"last_confirmed": q.lastConfirmed,
		}).Warn("peer disconnected")
	}
}

// checkDesync compares remote checksums against local ones for frames
// whose state is final on this side.
func (s *P2PSession) checkDesync() {
	for h := range s.peers {
		if h == s.cfg.LocalHandle {
			continue
		}
		for i := range s.peers[h].sums {
			remote := &s.peers[h].sums[i]
			if !remote.ok || remote.frame > s.finalFrame {
				continue
			}
			local, ok := s.localSum(remote.frame)
			remote.ok = false
			if !ok || local == remote.sum {
				continue
			}
			s.events = append(s.events, Event{
				Kind:   EventDesync,
				Handle: h,
				Frame:  remote.frame,
				Local:  local,
				Remote: remote.sum,
			})
			s.log.WithFields(logrus.Fields{
				"peer":   h,
				"frame":  remote.frame,
				"local":  local,
				"remote": remote.sum,
			}).Error("desync detected")
		}
	}
}

// sendInputs sends every local input some connected peer has not
// acknowledged, up to the latest one, with this side's acks.
func (s *P2PSession) sendInputs() {
	q := s.players[s.cfg.LocalHandle]
	last := q.lastConfirmed
	first := last + 1
	for h := range s.peers {
		if h == s.cfg.LocalHandle || s.players[h].disconnected {
			continue
		}
		first = min(first, s.peers[h].acked+1)
	}
	first = max(first, last-inputBufferSize/2+1, 0)

	msg := messages.InputFrame{
		Handle: s.cfg.LocalHandle,
		Frame:  first,
		Acks:   make([]int, len(s.players)),
	}
	for f := first; f <= last; f++ {
		data, _ := q.get(f)
		msg.Inputs = append(msg.Inputs, data)
	}
	for h, p := range s.players {
		msg.Acks[h] = p.lastConfirmed
	}

	if s.finalFrame >= 0 {
		f := s.finalFrame - s.finalFrame%checksumInterval
		if f > s.lastSumSent {
			if sum, ok := s.localSum(f); ok {
				msg.HasChecksum = true
				msg.ChecksumFrame = f
				msg.Checksum = sum
				s.lastSumSent = f
			}
		}
	}

	if err := s.transport.Send(msg); err != nil {
		s.log.WithError(err).Warn("send input failed")
	}
}

// keepAlive repeats the unacknowledged inputs while stalled so peers do not
// time out and recover anything lost.
func (s *P2PSession) keepAlive() {
	if s.spectator() {
		return
	}
	s.sendInputs()
}
