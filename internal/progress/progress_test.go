package progress

import (
	"testing"
	"time"
)

func collect(events *[]Event) Func {
	return func(e Event) { *events = append(*events, e) }
}

func TestEmitterDropsStageRegressions(t *testing.T) {
	var got []Event
	m := NewEmitter(collect(&got))

	m.Emit(Event{Stage: StageUpload})
	m.Emit(Event{Stage: StageAnalyze})
	m.Emit(Event{Stage: StageUpload}) // regression, dropped
	m.Emit(Event{Stage: StageDone})

	want := []Stage{StageUpload, StageAnalyze, StageDone}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, st := range want {
		if got[i].Stage != st {
			t.Errorf("event %d stage = %q, want %q", i, got[i].Stage, st)
		}
	}
}

func TestEmitterAllowsErrorThenDone(t *testing.T) {
	var got []Event
	m := NewEmitter(collect(&got))

	m.Emit(Event{Stage: StageUpload})
	m.Emit(Event{Stage: StageError, Message: "remote unreachable"})
	m.Emit(Event{Stage: StageDone})

	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[1].Stage != StageError || got[2].Stage != StageDone {
		t.Errorf("fallback recovery sequence not preserved: %+v", got)
	}
}

func TestEmitterClampsLoaded(t *testing.T) {
	var got []Event
	m := NewEmitter(collect(&got))

	m.Emit(Event{Stage: StageUpload, Loaded: 100})
	m.Emit(Event{Stage: StageUpload, Loaded: 50}) // clamped to 100
	m.Emit(Event{Stage: StageUpload, Loaded: 200})

	if got[1].Loaded != 100 {
		t.Errorf("second event loaded = %d, want clamped 100", got[1].Loaded)
	}
	if got[2].Loaded != 200 {
		t.Errorf("third event loaded = %d, want 200", got[2].Loaded)
	}
}

func TestThrottleBoundsRate(t *testing.T) {
	var got []Event
	th := NewThrottle(collect(&got), 50*time.Millisecond)

	for i := 0; i < 100; i++ {
		th.Emit(Event{Stage: StageUpload, Loaded: int64(i)})
	}
	// 100 back-to-back emits inside one window collapse to the first one.
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}

	th.Flush(Event{Stage: StageUpload, Loaded: 100, Percent: 100})
	if len(got) != 2 {
		t.Fatalf("Flush must bypass the window, got %d events", len(got))
	}
	if got[1].Percent != 100 {
		t.Errorf("final event percent = %v, want 100", got[1].Percent)
	}
}
