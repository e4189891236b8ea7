package action

import (
	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/logger"
)

// Queue holds the actions of a single tick. Tx collects locally authored
// intents; Rx holds the resolved actions to apply. Both are emptied by
// Clear at the end of every tick.
type Queue struct {
	tx []Action
	rx []Action
}

// PushTx appends a locally authored action. Insertion order is kept.
func (q *Queue) PushTx(a Action) {
	q.tx = append(q.tx, a)
}

// Tx returns the locally authored actions of this tick.
func (q *Queue) Tx() []Action {
	return q.tx
}

// Rx returns the resolved actions without consuming them.
func (q *Queue) Rx() []Action {
	return q.rx
}

// PushRx appends an already resolved action, as done by replay playback.
func (q *Queue) PushRx(a Action) {
	q.rx = append(q.rx, a)
}

// LastTx returns the value sent to the network for this tick: the most
// recently pushed action, or Empty when nothing was pushed.
func (q *Queue) LastTx() Action {
	if len(q.tx) == 0 {
		return Empty
	}
	q.warnDepth()
	return q.tx[len(q.tx)-1]
}

// ResolveLocal is the offline tick boundary: rx becomes a copy of tx.
func (q *Queue) ResolveLocal() {
	q.warnDepth()
	q.rx = append(q.rx, q.tx...)
}

// ResolveConfirmed fills rx from the confirmed input of every participant,
// in handle order. Empty inputs are dropped.
func (q *Queue) ResolveConfirmed(inputs []Encoded) {
	for _, in := range inputs {
		a := Decode(in)
		if a.IsEmpty() {
			continue
		}
		q.rx = append(q.rx, a)
	}
}

// DrainRx returns the resolved actions and empties rx.
func (q *Queue) DrainRx() []Action {
	out := q.rx
	q.rx = nil
	return out
}

// Clear empties both buffers.
func (q *Queue) Clear() {
	q.tx = nil
	q.rx = nil
}

// Len returns the number of queued local actions.
func (q *Queue) Len() int {
	return len(q.tx)
}

func (q *Queue) warnDepth() {
	if len(q.tx) > 1 && config.Debug.LogQueueDepth {
		logger.Log.WithFields(logrus.Fields{
			"component": "action",
			"depth":     len(q.tx),
		}).Warn("more than one local action queued in a tick")
	}
}
