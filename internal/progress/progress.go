// Package progress defines the stage-tagged events pushed to a UI surface
// while an analysis request is in flight.
package progress

import "time"

// Stage identifies where in its lifecycle an analysis request is.
type Stage string

const (
	StageIdle    Stage = "idle"
	StageUpload  Stage = "upload"
	StageAnalyze Stage = "analyze"
	StageDone    Stage = "done"
	StageError   Stage = "error"
)

// rank orders stages for the monotonicity guard. "error" sits below "done"
// so the fallback recovery sequence (error event, then done on local
// success) is still non-decreasing.
func (s Stage) rank() int {
	switch s {
	case StageIdle:
		return 0
	case StageUpload:
		return 1
	case StageAnalyze:
		return 2
	case StageError:
		return 3
	case StageDone:
		return 4
	}
	return -1
}

// Event is one status update for an analysis request.
type Event struct {
	Stage   Stage   `json:"stage"`
	Loaded  int64   `json:"loaded,omitempty"`
	Total   int64   `json:"total,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Func receives events. Implementations must not block; delivery to a
// departed surface is the sink's problem, not the producer's.
type Func func(Event)

// Emitter wraps a sink and enforces the per-request ordering invariants:
// the stage sequence never regresses, and byte counters never decrease
// while uploading. Out-of-order events are silently dropped or clamped
// rather than surfaced; producers stay simple and the invariant holds
// structurally.
type Emitter struct {
	sink       Func
	lastStage  Stage
	lastLoaded int64
}

func NewEmitter(sink Func) *Emitter {
	return &Emitter{sink: sink, lastStage: StageIdle}
}

// Emit forwards e to the sink, dropping stage regressions and clamping a
// shrinking Loaded counter to the high-water mark.
func (m *Emitter) Emit(e Event) {
	if m.sink == nil {
		return
	}
	if e.Stage.rank() < m.lastStage.rank() {
		return
	}
	if e.Stage == StageUpload {
		if e.Loaded < m.lastLoaded {
			e.Loaded = m.lastLoaded
		}
		m.lastLoaded = e.Loaded
	}
	m.lastStage = e.Stage
	m.sink(e)
}

// Throttle rate-limits events to at most one per window. The final event of
// a transfer must go through Flush, which bypasses the window so a 100%
// event is always delivered.
type Throttle struct {
	emit   Func
	window time.Duration
	last   time.Time
}

func NewThrottle(emit Func, window time.Duration) *Throttle {
	return &Throttle{emit: emit, window: window}
}

// Emit forwards e unless another event was forwarded within the window.
func (t *Throttle) Emit(e Event) {
	if t.emit == nil {
		return
	}
	now := time.Now()
	if !t.last.IsZero() && now.Sub(t.last) < t.window {
		return
	}
	t.last = now
	t.emit(e)
}

// Flush forwards e unconditionally and resets the window.
func (t *Throttle) Flush(e Event) {
	if t.emit == nil {
		return
	}
	t.last = time.Now()
	t.emit(e)
}
