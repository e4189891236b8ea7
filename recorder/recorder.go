package recorder

import (
	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/logger"
)

// Record is one logged action and the simulation step it was applied on.
type Record struct {
	Step   uint32
	Action action.Encoded
}

// Recorder is the replay log of a game. Steps in the log never decrease;
// playback consumes records strictly in order, one step at a time.
type Recorder struct {
	records    []Record
	play       bool
	playHead   int
	disableRec bool
}

// New returns an empty recorder with recording enabled.
func New() *Recorder {
	return &Recorder{}
}

// ShouldRecord reports whether applied actions are appended to the log.
func (r *Recorder) ShouldRecord() bool {
	return !r.disableRec
}

// SetRecording enables or disables recording.
func (r *Recorder) SetRecording(enabled bool) {
	r.disableRec = !enabled
}

// Record appends a at step when the action is recordable. Speed, pause,
// restart and empty actions are dropped. Records that would break step
// order are dropped with a warning.
func (r *Recorder) Record(step uint32, a action.Action) {
	if !a.Recordable() {
		return
	}
	if n := len(r.records); n > 0 && r.records[n-1].Step > step {
		logger.Log.WithFields(logrus.Fields{
			"component": "recorder",
			"step":      step,
			"last":      r.records[n-1].Step,
		}).Warn("dropping out-of-order record")
		return
	}
	r.records = append(r.records, Record{Step: step, Action: action.Encode(a)})
}

// PlaybackTick returns the recorded actions of step in their original
// order and moves the play head past them. It stops at the first record
// of a later step and never skips ahead.
func (r *Recorder) PlaybackTick(step uint32) []action.Action {
	var out []action.Action
	for r.playHead < len(r.records) && r.records[r.playHead].Step == step {
		out = append(out, action.Decode(r.records[r.playHead].Action))
		r.playHead++
	}
	return out
}

// StartPlayback rewinds the play head and enters playback mode.
func (r *Recorder) StartPlayback() {
	r.play = true
	r.playHead = 0
}

// StopPlayback leaves playback mode. The log is kept.
func (r *Recorder) StopPlayback() {
	r.play = false
}

// Playing reports whether the recorder is in playback mode.
func (r *Recorder) Playing() bool {
	return r.play
}

// Finished reports whether playback has consumed the whole log.
func (r *Recorder) Finished() bool {
	return r.playHead >= len(r.records)
}

// Records returns a copy of the log.
func (r *Recorder) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Clear empties the log and rewinds the play head.
func (r *Recorder) Clear() {
	r.records = nil
	r.playHead = 0
}

// Checkpoint is a saved recorder position for rollback.
type Checkpoint struct {
	records  []Record
	playHead int
}

// Checkpoint captures the log and play head. The capture shares storage
// with the live log but can never observe records appended after it.
func (r *Recorder) Checkpoint() Checkpoint {
	n := len(r.records)
	return Checkpoint{
		records:  r.records[:n:n],
		playHead: r.playHead,
	}
}

// Restore returns the log and play head to cp.
func (r *Recorder) Restore(cp Checkpoint) {
	r.records = cp.records
	r.playHead = cp.playHead
}
