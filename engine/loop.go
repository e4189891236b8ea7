package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/network"
)

const submitBufferSize = 64

// Loop drives a Runner at a fixed tick rate. Offline, the tick interval
// shrinks or grows with the game speed; networked ticks stay uniform.
type Loop struct {
	runner   *Runner
	tickRate int
	submit   chan action.Action

	// Input, when set, is asked for scripted actions before every tick.
	Input func(tick uint64) []action.Action
	// MaxTicks stops the loop after that many completed ticks; 0 runs
	// until the context is done.
	MaxTicks uint64
	// StatsInterval is the period of network stats logging; 0 disables it.
	StatsInterval time.Duration

	stalls  uint64
	pending bool // Scripted input of the stalled tick is already queued
	log     *logrus.Entry
}

// NewLoop returns a loop ticking runner tickRate times per second at
// normal speed.
func NewLoop(runner *Runner, tickRate int) *Loop {
	return &Loop{
		runner:   runner,
		tickRate: tickRate,
		submit:   make(chan action.Action, submitBufferSize),
		log:      logger.Component("loop"),
	}
}

// Submit queues an action from any goroutine. Actions beyond the buffer
// are dropped.
func (l *Loop) Submit(a action.Action) {
	select {
	case l.submit <- a:
	default:
		l.log.WithField("action", a.String()).Warn("submit buffer full, dropping action")
	}
}

// Stalls returns the number of ticks skipped waiting for remote input.
func (l *Loop) Stalls() uint64 {
	return l.stalls
}

func (l *Loop) interval() time.Duration {
	base := time.Second / time.Duration(l.tickRate)
	if l.runner.session != nil {
		return base
	}
	m := l.runner.world.Time.Multiplier()
	if m <= 0 || l.runner.world.Time.Paused {
		return base
	}
	return time.Duration(float64(base) / m)
}

// Run ticks until ctx is done, MaxTicks is reached or a tick fails.
func (l *Loop) Run(ctx context.Context) error {
	current := l.interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	var stats <-chan time.Time
	if l.StatsInterval > 0 && l.runner.session != nil {
		st := time.NewTicker(l.StatsInterval)
		defer st.Stop()
		stats = st.C
	}

	l.log.WithField("tick_rate", l.tickRate).Info("loop started")

	for {
		select {
		case <-ctx.Done():
			l.log.WithField("ticks", l.runner.Ticks()).Info("loop stopped")
			return nil
		case a := <-l.submit:
			l.runner.Push(a)
		case <-stats:
			l.logStats()
		case <-ticker.C:
			if err := l.tick(); err != nil {
				return err
			}
			if l.MaxTicks > 0 && l.runner.Ticks() >= l.MaxTicks {
				l.log.WithField("ticks", l.runner.Ticks()).Info("loop finished")
				return nil
			}
			if next := l.interval(); next != current {
				current = next
				ticker.Reset(current)
			}
		}
	}
}

func (l *Loop) tick() error {
	if l.Input != nil && !l.pending {
		for _, a := range l.Input(l.runner.Ticks()) {
			l.runner.Push(a)
		}
	}

	err := l.runner.AdvanceTick()
	for _, e := range l.runner.Events() {
		l.log.WithFields(logrus.Fields{
			"event":  e.Kind.String(),
			"handle": e.Handle,
			"frame":  e.Frame,
		}).Info("session event")
	}

	switch {
	case errors.Is(err, network.ErrPredictionThreshold):
		l.stalls++
		l.pending = true
		l.log.Debug("waiting for remote input")
		return nil
	case err != nil:
		return err
	}
	l.pending = false
	return nil
}

func (l *Loop) logStats() {
	session := l.runner.session
	for h := 0; h < session.NumPlayers(); h++ {
		st, err := session.Stats(h)
		if err != nil {
			continue
		}
		l.log.WithFields(logrus.Fields{
			"peer":            h,
			"inputs_received": st.InputsReceived,
			"last_frame":      st.LastFrame,
			"frames_behind":   st.FramesBehind,
			"since_received":  st.SinceReceived.String(),
			"disconnected":    st.Disconnected,
			"rollbacks":       st.Rollbacks,
			"rollback_frames": st.RollbackFrames,
			"stalls":          l.stalls,
		}).Info("network stats")
	}
}
