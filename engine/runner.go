package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/game"
	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/network"
	"github.com/automoto/ld51/recorder"
)

// ErrMissingState is returned when a session asks to load a frame that is
// no longer in the state buffer.
var ErrMissingState = errors.New("no saved state for frame")

// Runner owns the world, the action queue and the recorder, and advances
// them one tick at a time. Without a session it runs offline: confirmed
// input is exactly the local input.
type Runner struct {
	world   *game.World
	queue   action.Queue
	rec     *recorder.Recorder
	session network.Session
	sim     game.Simulator

	states stateRing
	local  game.Time // Presentation speed in networked play
	events []network.Event
	ticks  uint64
	log    *logrus.Entry
}

// NewRunner returns a runner for w. session may be nil for offline play;
// with a session the world runs in fixed lockstep. sim may be nil.
func NewRunner(w *game.World, rec *recorder.Recorder, session network.Session, sim game.Simulator) *Runner {
	if rec == nil {
		rec = recorder.New()
	}
	w.Rules.FixedLockstep = session != nil
	return &Runner{
		world:   w,
		rec:     rec,
		session: session,
		sim:     sim,
		local:   game.NewTime(w.TimeCfg),
		log:     logger.Component("engine"),
	}
}

// World returns the simulated world.
func (r *Runner) World() *game.World {
	return r.world
}

// Recorder returns the replay log.
func (r *Runner) Recorder() *recorder.Recorder {
	return r.rec
}

// Session returns the rollback session, nil offline.
func (r *Runner) Session() network.Session {
	return r.session
}

// Ticks returns the number of completed ticks. Stalled ticks are not counted.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// Push queues a locally authored action for the next tick.
func (r *Runner) Push(a action.Action) {
	r.queue.PushTx(a)
}

// SpeedMultiplier is the speed the tick driver should run at. Networked
// ticks stay uniform, so the local multiplier only scales presentation.
func (r *Runner) SpeedMultiplier() float64 {
	if r.session != nil {
		return r.local.Multiplier()
	}
	return r.world.Time.Multiplier()
}

// Events drains session events observed since the last call.
func (r *Runner) Events() []network.Event {
	out := r.events
	r.events = nil
	return out
}

// AdvanceTick runs one tick: resolve the queue, apply the actions, record
// them and clear the queue. A networked tick may first roll back and
// re-simulate earlier frames. When the session stalls the error wraps
// network.ErrPredictionThreshold and the queued local actions are kept for
// the next attempt.
func (r *Runner) AdvanceTick() error {
	if r.session == nil {
		r.advanceOffline()
		r.ticks++
		return nil
	}

	wire := r.queue.LastTx()
	reqs, err := r.session.AdvanceFrame(action.Encode(wire))
	r.events = append(r.events, r.session.Events()...)
	if err != nil {
		return fmt.Errorf("advance tick %d: %w", r.ticks, err)
	}

	for _, a := range r.queue.Tx() {
		if a.Tag == action.TagGameSpeedDec || a.Tag == action.TagGameSpeedInc {
			r.local.Apply(a, r.world.TimeCfg)
		}
	}

	for _, req := range reqs {
		switch req := req.(type) {
		case network.SaveState:
			r.save(req.Frame)
		case network.LoadState:
			if err := r.load(req.Frame); err != nil {
				r.queue.Clear()
				return err
			}
		case network.AdvanceFrame:
			r.queue.ResolveConfirmed(req.Inputs)
			r.apply(r.queue.DrainRx())
		}
	}

	r.queue.Clear()
	r.ticks++
	return nil
}

func (r *Runner) advanceOffline() {
	if r.rec.Playing() {
		recorded := r.rec.PlaybackTick(r.world.Step)
		for _, a := range recorded {
			r.queue.PushRx(a)
		}
		// The viewer may still pause or change speed.
		for _, a := range r.queue.Tx() {
			if !a.Recordable() {
				r.queue.PushRx(a)
			}
		}
	} else {
		r.queue.ResolveLocal()
	}

	r.apply(r.queue.DrainRx())
	r.queue.Clear()
}

// apply runs the game step and logs the applied actions at the step they
// were applied on.
func (r *Runner) apply(actions []action.Action) {
	step := r.world.Step
	game.Step(r.world, actions, r.sim)

	if r.rec.ShouldRecord() && !r.rec.Playing() {
		for _, a := range actions {
			r.rec.Record(step, a)
		}
	}

	if r.world.RestartRequested() {
		game.Reset(r.world)
		if r.rec.Playing() {
			r.rec.StartPlayback()
		} else {
			r.rec.Clear()
		}
		r.log.Info("game restarted")
	}
}

func (r *Runner) save(frame int) {
	r.states.Store(frame, game.TakeSnapshot(r.world), r.rec.Checkpoint())
	r.session.ReportChecksum(frame, game.Checksum(r.world))
}

func (r *Runner) load(frame int) error {
	s, ok := r.states.Get(frame)
	if !ok {
		return fmt.Errorf("%w %d", ErrMissingState, frame)
	}
	game.Restore(r.world, s.world)
	r.rec.Restore(s.recorder)
	return nil
}

// Playback switches the runner to replaying the recorder log from the
// current world state.
func (r *Runner) Playback() {
	r.rec.StartPlayback()
}
