package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/shared/messages"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func newTestSession(t *testing.T, cfg SessionConfig, tr Transport, clock *fakeClock) *P2PSession {
	t.Helper()
	s, err := NewP2PSession(cfg, tr)
	require.NoError(t, err)
	if clock != nil {
		s.now = clock.now
		for h := range s.peers {
			s.peers[h].lastRecv = clock.t
		}
	}
	return s
}

func enc(a action.Action) action.Encoded {
	return action.Encode(a)
}

func TestSinglePlayerSessionIsIdentity(t *testing.T) {
	s := newTestSession(t, SessionConfig{NumPlayers: 1, LocalHandle: 0}, NewLoopback().Endpoint(), nil)

	in := enc(action.BlasterPlace(1, 1))
	reqs, err := s.AdvanceFrame(in)
	require.NoError(t, err)
	assert.Equal(t, []Request{
		SaveState{Frame: 0},
		AdvanceFrame{Frame: 0, Inputs: []action.Encoded{in}},
	}, reqs)
	assert.Equal(t, 0, s.ConfirmedFrame())
	assert.Equal(t, 1, s.CurrentFrame())
}

func TestInputDelay(t *testing.T) {
	s := newTestSession(t, SessionConfig{NumPlayers: 1, LocalHandle: 0, InputDelay: 3}, NewLoopback().Endpoint(), nil)

	inputs := []action.Encoded{
		enc(action.BlasterPlace(1, 1)),
		enc(action.WavePlace(2, 2)),
		enc(action.LaserPlace(3, 3)),
		enc(action.SellTurret(1, 1)),
	}
	var applied []action.Encoded
	for _, in := range inputs {
		reqs, err := s.AdvanceFrame(in)
		require.NoError(t, err)
		adv := reqs[len(reqs)-1].(AdvanceFrame)
		applied = append(applied, adv.Inputs[0])
	}

	assert.Equal(t, []action.Encoded{{}, {}, {}, inputs[0]}, applied)
}

func twoPlayers(t *testing.T, delay, maxPrediction int, clock *fakeClock) (*P2PSession, *P2PSession, *Loopback) {
	hub := NewLoopback()
	cfg := SessionConfig{
		NumPlayers:        2,
		InputDelay:        delay,
		MaxPrediction:     maxPrediction,
		DisconnectTimeout: time.Second,
	}
	cfg.LocalHandle = 0
	p0 := newTestSession(t, cfg, hub.Endpoint(), clock)
	cfg.LocalHandle = 1
	p1 := newTestSession(t, cfg, hub.Endpoint(), clock)
	return p0, p1, hub
}

func TestPredictionThreshold(t *testing.T) {
	p0, _, _ := twoPlayers(t, 2, 1, nil)

	for i := 0; i < 3; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err, "frame %d", i)
	}
	reqs, err := p0.AdvanceFrame(action.Encoded{})
	assert.ErrorIs(t, err, ErrPredictionThreshold)
	assert.Nil(t, reqs)
	assert.Equal(t, 3, p0.CurrentFrame(), "a stalled poll does not advance")
}

func TestMispredictionRollsBack(t *testing.T) {
	p0, p1, _ := twoPlayers(t, 2, 1, nil)

	for i := 0; i < 3; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
	}
	_, err := p0.AdvanceFrame(action.Encoded{})
	require.ErrorIs(t, err, ErrPredictionThreshold)

	x := enc(action.WavePlace(2, 2))
	_, err = p1.AdvanceFrame(x)
	require.NoError(t, err)

	reqs, err := p0.AdvanceFrame(action.Encoded{})
	require.NoError(t, err)
	assert.Equal(t, []Request{
		LoadState{Frame: 2},
		AdvanceFrame{Frame: 2, Inputs: []action.Encoded{{}, x}, Rollback: true},
		SaveState{Frame: 3},
		AdvanceFrame{Frame: 3, Inputs: []action.Encoded{{}, {}}},
	}, reqs)

	stats, err := p0.Stats(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Rollbacks)
	assert.Equal(t, uint64(1), stats.RollbackFrames)
	assert.Equal(t, 2, stats.LastFrame)
}

func TestCorrectPredictionDoesNotRollBack(t *testing.T) {
	p0, p1, _ := twoPlayers(t, 2, 1, nil)

	for i := 0; i < 3; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
	}
	_, err := p1.AdvanceFrame(action.Encoded{})
	require.NoError(t, err)

	reqs, err := p0.AdvanceFrame(action.Encoded{})
	require.NoError(t, err)
	for _, r := range reqs {
		_, isLoad := r.(LoadState)
		assert.False(t, isLoad)
	}
}

func TestDisconnectConfirmsEmpty(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p0, _, _ := twoPlayers(t, 2, 1, clock)

	for i := 0; i < 3; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
	}
	_, err := p0.AdvanceFrame(action.Encoded{})
	require.ErrorIs(t, err, ErrPredictionThreshold)
	assert.Empty(t, p0.Events())

	clock.t = clock.t.Add(2 * time.Second)
	reqs, err := p0.AdvanceFrame(action.Encoded{})
	require.NoError(t, err)
	assert.Equal(t, AdvanceFrame{Frame: 3, Inputs: []action.Encoded{{}, {}}}, reqs[len(reqs)-1])

	events := p0.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventDisconnected, events[0].Kind)
	assert.Equal(t, 1, events[0].Handle)

	stats, err := p0.Stats(1)
	require.NoError(t, err)
	assert.True(t, stats.Disconnected)
	assert.Equal(t, 2*time.Second, stats.SinceReceived)

	for i := 0; i < 10; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err, "no stalls once the peer is gone")
	}
}

func TestSpectatorAdvancesOnConfirmedFrames(t *testing.T) {
	hub := NewLoopback()
	player := newTestSession(t, SessionConfig{NumPlayers: 1, LocalHandle: 0}, hub.Endpoint(), nil)
	spectator := newTestSession(t, SessionConfig{NumPlayers: 1, LocalHandle: SpectatorHandle}, hub.Endpoint(), nil)

	_, err := spectator.AdvanceFrame(action.Encoded{})
	require.ErrorIs(t, err, ErrPredictionThreshold)

	in := enc(action.LaserPlace(4, 4))
	_, err = player.AdvanceFrame(in)
	require.NoError(t, err)

	reqs, err := spectator.AdvanceFrame(action.Encoded{})
	require.NoError(t, err)
	assert.Equal(t, []Request{
		SaveState{Frame: 0},
		AdvanceFrame{Frame: 0, Inputs: []action.Encoded{in}},
	}, reqs)

	_, err = spectator.AdvanceFrame(action.Encoded{})
	assert.ErrorIs(t, err, ErrPredictionThreshold)
}

func TestDesyncDetected(t *testing.T) {
	p0, p1, _ := twoPlayers(t, 2, 1, nil)

	run := func(s *P2PSession, corrupt bool) {
		reqs, err := s.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
		for _, r := range reqs {
			if save, ok := r.(SaveState); ok {
				sum := uint64(save.Frame)
				if corrupt && save.Frame == checksumInterval {
					sum = 999
				}
				s.ReportChecksum(save.Frame, sum)
			}
		}
	}

	for i := 0; i < checksumInterval+5; i++ {
		run(p0, false)
		run(p1, true)
	}

	var desyncs []Event
	for _, e := range append(p0.Events(), p1.Events()...) {
		if e.Kind == EventDesync {
			desyncs = append(desyncs, e)
		}
	}
	require.NotEmpty(t, desyncs)
	for _, e := range desyncs {
		assert.Equal(t, checksumInterval, e.Frame)
	}
}

func TestNewP2PSessionValidates(t *testing.T) {
	ep := NewLoopback().Endpoint()

	_, err := NewP2PSession(SessionConfig{NumPlayers: 2, LocalHandle: 2}, ep)
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = NewP2PSession(SessionConfig{NumPlayers: 0}, ep)
	assert.Error(t, err)

	_, err = NewP2PSession(SessionConfig{NumPlayers: 1, InputDelay: 100}, ep)
	assert.Error(t, err)

	_, err = NewP2PSession(SessionConfig{NumPlayers: 1}, nil)
	assert.Error(t, err)

	_, err = NewP2PSession(SessionConfig{NumPlayers: 2, LocalHandle: 0}, ep)
	assert.Error(t, err, "two players in lockstep with no slack never advance")
}

func TestStatsRejectsLocalHandle(t *testing.T) {
	p0, _, _ := twoPlayers(t, 0, 1, nil)
	_, err := p0.Stats(0)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, err = p0.Stats(5)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSinglePlayerWithoutSlackAdvancesEveryCall(t *testing.T) {
	s := newTestSession(t, SessionConfig{NumPlayers: 1, LocalHandle: 0}, NewLoopback().Endpoint(), nil)
	for i := 0; i < 10; i++ {
		_, err := s.AdvanceFrame(enc(action.BlasterPlace(uint8(i), 0)))
		require.NoError(t, err, "frame %d", i)
	}
	assert.Equal(t, 10, s.CurrentFrame())
	assert.Equal(t, 9, s.ConfirmedFrame())
}

func TestStalledCallSubmitsNothing(t *testing.T) {
	p0, _, _ := twoPlayers(t, 2, 1, nil)
	for i := 0; i < 3; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
	}

	_, err := p0.AdvanceFrame(enc(action.GamePause()))
	require.ErrorIs(t, err, ErrPredictionThreshold)
	_, ok := p0.players[0].get(5)
	assert.False(t, ok, "the stalled input stays with the caller")
}

// recordingTransport keeps every sent frame.
type recordingTransport struct {
	Transport
	sent []messages.InputFrame
}

func (r *recordingTransport) Send(msg messages.InputFrame) error {
	r.sent = append(r.sent, msg)
	return r.Transport.Send(msg)
}

func TestUnacknowledgedInputsAreRepeated(t *testing.T) {
	hub := NewLoopback()
	tr := &recordingTransport{Transport: hub.Endpoint()}
	p0 := newTestSession(t, SessionConfig{NumPlayers: 2, LocalHandle: 0, InputDelay: 2, MaxPrediction: 1}, tr, nil)

	a, b := enc(action.BlasterPlace(1, 1)), enc(action.WavePlace(2, 2))
	_, err := p0.AdvanceFrame(a)
	require.NoError(t, err)
	_, err = p0.AdvanceFrame(b)
	require.NoError(t, err)

	require.Len(t, tr.sent, 2)
	last := tr.sent[1]
	assert.Equal(t, 2, last.Frame)
	assert.Equal(t, [][3]byte{a, b}, last.Inputs)
	assert.Equal(t, []int{3, 1}, last.Acks)
}

func TestAcknowledgedInputsAreNotRepeated(t *testing.T) {
	hub := NewLoopback()
	tr := &recordingTransport{Transport: hub.Endpoint()}
	cfg := SessionConfig{NumPlayers: 2, LocalHandle: 0, InputDelay: 2, MaxPrediction: 1}
	p0 := newTestSession(t, cfg, tr, nil)
	cfg.LocalHandle = 1
	p1 := newTestSession(t, cfg, hub.Endpoint(), nil)

	for i := 0; i < 5; i++ {
		_, err := p0.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
		_, err = p1.AdvanceFrame(action.Encoded{})
		require.NoError(t, err)
	}

	last := tr.sent[len(tr.sent)-1]
	assert.Len(t, last.Inputs, 1, "peer 1 acked everything but the newest input")
	assert.Equal(t, 6, last.Frame)
}

func advanceOrStall(t *testing.T, s *P2PSession, in action.Encoded) bool {
	t.Helper()
	_, err := s.AdvanceFrame(in)
	if err != nil {
		require.ErrorIs(t, err, ErrPredictionThreshold)
		return false
	}
	return true
}

// assertSameInputs checks that both sessions hold identical inputs for
// every frame both have confirmed.
func assertSameInputs(t *testing.T, p0, p1 *P2PSession) {
	t.Helper()
	through := min(p0.ConfirmedFrame(), p1.ConfirmedFrame())
	for f := max(0, through-inputBufferSize/2+1); f <= through; f++ {
		for h := 0; h < 2; h++ {
			d0, ok0 := p0.players[h].get(f)
			d1, ok1 := p1.players[h].get(f)
			require.True(t, ok0 && ok1, "frame %d handle %d", f, h)
			assert.Equal(t, d0, d1, "frame %d handle %d", f, h)
		}
	}
}

func TestLateJoinerReceivesEarlyInputs(t *testing.T) {
	hub := NewLoopback()
	cfg := SessionConfig{NumPlayers: 2, LocalHandle: 0, InputDelay: 2, MaxPrediction: 1, DisconnectTimeout: time.Minute}
	p0 := newTestSession(t, cfg, hub.Endpoint(), nil)

	early := enc(action.BlasterPlace(3, 3))
	require.True(t, advanceOrStall(t, p0, early))
	for i := 0; i < 4; i++ {
		advanceOrStall(t, p0, action.Encoded{})
	}

	// Peer 1 connects after peer 0 already sent frames 2..4.
	cfg.LocalHandle = 1
	p1 := newTestSession(t, cfg, hub.Endpoint(), nil)

	for i := 0; i < 200; i++ {
		advanceOrStall(t, p0, enc(action.WavePlace(uint8(i%24), 1)))
		advanceOrStall(t, p1, enc(action.LaserPlace(uint8(i%24), 2)))
	}

	assert.Greater(t, p0.ConfirmedFrame(), 100)
	assert.Greater(t, p1.ConfirmedFrame(), 100)
	got, ok := p1.players[0].get(2)
	require.True(t, ok)
	assert.Equal(t, early, got)
	assertSameInputs(t, p0, p1)
}

// lossyTransport drops every nth sent frame.
type lossyTransport struct {
	Transport
	every int
	sends int
}

func (l *lossyTransport) Send(msg messages.InputFrame) error {
	l.sends++
	if l.sends%l.every == 0 {
		return nil
	}
	return l.Transport.Send(msg)
}

func TestDroppedFramesAreRecovered(t *testing.T) {
	hub := NewLoopback()
	cfg := SessionConfig{NumPlayers: 2, LocalHandle: 0, InputDelay: 2, MaxPrediction: 2, DisconnectTimeout: time.Minute}
	p0 := newTestSession(t, cfg, &lossyTransport{Transport: hub.Endpoint(), every: 3}, nil)
	cfg.LocalHandle = 1
	p1 := newTestSession(t, cfg, &lossyTransport{Transport: hub.Endpoint(), every: 2}, nil)

	for i := 0; i < 300; i++ {
		advanceOrStall(t, p0, enc(action.BlasterPlace(uint8(i%24), uint8(i%7))))
		advanceOrStall(t, p1, enc(action.SellTurret(uint8(i%24), uint8(i%5))))
	}

	assert.Greater(t, p0.ConfirmedFrame(), 100)
	assert.Greater(t, p1.ConfirmedFrame(), 100)
	assertSameInputs(t, p0, p1)
}
