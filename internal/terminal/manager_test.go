//go:build !windows

package terminal

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pokymono/kisame-sub001/internal/shellenv"
)

type exitRecord struct {
	surfaceID string
	id        int64
	code      int
}

// recordSink captures notifications; exits are signalled on a channel so
// tests can wait for the pump without polling.
type recordSink struct {
	mu    sync.Mutex
	data  map[int64][]byte
	exits chan exitRecord
}

func newRecordSink() *recordSink {
	return &recordSink{
		data:  make(map[int64][]byte),
		exits: make(chan exitRecord, 16),
	}
}

func (s *recordSink) TerminalData(_ string, id int64, data []byte) {
	s.mu.Lock()
	s.data[id] = append(s.data[id], data...)
	s.mu.Unlock()
}

func (s *recordSink) TerminalExit(surfaceID string, id int64, code int) {
	s.exits <- exitRecord{surfaceID: surfaceID, id: id, code: code}
}

func (s *recordSink) dataFor(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data[id])
}

func newTestManager() (*Manager, *recordSink) {
	sink := newRecordSink()
	return NewManager(shellenv.Current(), sink), sink
}

func waitExit(t *testing.T, sink *recordSink) exitRecord {
	t.Helper()
	select {
	case rec := <-sink.exits:
		return rec
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for exit notification")
		return exitRecord{}
	}
}

func TestCreateFallsThroughBadCandidates(t *testing.T) {
	m, sink := newTestManager()
	defer m.Shutdown()

	id, err := m.createFrom("surf-1", 80, 24,
		[]string{"/bin/doesnotexist", "/bin/sh"},
		[]string{"/nonexistent", "/"},
	)
	if err != nil {
		t.Fatalf("createFrom: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a session id")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}

	// The surviving pair is a real shell; prove it is interactive.
	m.Write(id, []byte("echo kisame-$((20+5))\n"))
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(sink.dataFor(id), "kisame-25") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(sink.dataFor(id), "kisame-25") {
		t.Errorf("shell output %q missing command echo", sink.dataFor(id))
	}
}

func TestCreateExhaustionEnumeratesEveryCandidate(t *testing.T) {
	m, _ := newTestManager()

	shells := []string{"/bin/no-such-shell-a", "/bin/no-such-shell-b"}
	_, err := m.createFrom("surf-1", 80, 24, shells, []string{"/"})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	for _, shell := range shells {
		if !strings.Contains(err.Error(), shell) {
			t.Errorf("error %q missing attempted shell %q", err, shell)
		}
	}
	if !strings.Contains(err.Error(), "/") {
		t.Errorf("error %q missing attempted cwd", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d after total failure, want 0", m.Count())
	}
}

func TestUnknownIDOperationsAreNoops(t *testing.T) {
	m, _ := newTestManager()

	// None of these may panic or error for a never-issued id.
	m.Write(9999, []byte("ignored"))
	m.Resize(9999, 120, 40)
	m.Kill(9999)
}

func TestKillIsIdempotentAndImmediate(t *testing.T) {
	m, sink := newTestManager()

	id, err := m.createFrom("surf-1", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatalf("createFrom: %v", err)
	}

	m.Kill(id)
	if m.Count() != 0 {
		t.Error("Kill must deregister immediately")
	}
	m.Kill(id) // second call is a no-op

	rec := waitExit(t, sink)
	if rec.id != id {
		t.Errorf("exit for id %d, want %d", rec.id, id)
	}
}

func TestExitNotificationCarriesCodeAndSurface(t *testing.T) {
	m, sink := newTestManager()
	defer m.Shutdown()

	id, err := m.createFrom("surf-7", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatalf("createFrom: %v", err)
	}

	m.Write(id, []byte("exit 4\n"))
	rec := waitExit(t, sink)
	if rec.surfaceID != "surf-7" {
		t.Errorf("surface = %q, want surf-7", rec.surfaceID)
	}
	if rec.code != 4 {
		t.Errorf("exit code = %d, want 4", rec.code)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d after exit, want 0", m.Count())
	}
}

func TestSessionIDsAreMonotonic(t *testing.T) {
	m, _ := newTestManager()
	defer m.Shutdown()

	first, err := m.createFrom("s", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.createFrom("s", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Errorf("ids not monotonic: %d then %d", first, second)
	}

	// Ids are never reused, even after the earlier session dies.
	m.Kill(first)
	third, err := m.createFrom("s", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatal(err)
	}
	if third <= second {
		t.Errorf("id %d reused after kill of %d", third, first)
	}
}

func TestShutdownKillsEverything(t *testing.T) {
	m, _ := newTestManager()

	for i := 0; i < 3; i++ {
		if _, err := m.createFrom("s", 80, 24, []string{"/bin/sh"}, []string{"/"}); err != nil {
			t.Fatal(err)
		}
	}
	if m.Count() != 3 {
		t.Fatalf("Count = %d, want 3", m.Count())
	}

	m.Shutdown()
	if m.Count() != 0 {
		t.Errorf("Count = %d after Shutdown, want 0", m.Count())
	}
}

func TestResizeLiveSession(t *testing.T) {
	m, _ := newTestManager()
	defer m.Shutdown()

	id, err := m.createFrom("s", 80, 24, []string{"/bin/sh"}, []string{"/"})
	if err != nil {
		t.Fatal(err)
	}
	// Must not panic; the PTY accepts the new size.
	m.Resize(id, 132, 43)
}

func TestShellCandidatesOrderedAndDeduped(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")
	m, _ := newTestManager()

	cands := m.shellCandidates("/bin/sh")
	if len(cands) == 0 {
		t.Fatal("no shell candidates")
	}
	if cands[0] != "/bin/sh" {
		t.Errorf("first candidate = %q, want the usable override", cands[0])
	}
	seen := map[string]int{}
	for _, c := range cands {
		seen[c]++
	}
	for c, n := range seen {
		if n > 1 {
			t.Errorf("candidate %q appears %d times", c, n)
		}
	}
}

func TestShellCandidatesSkipUnusableOverride(t *testing.T) {
	m, _ := newTestManager()
	cands := m.shellCandidates("/bin/definitely-not-a-shell")
	for _, c := range cands {
		if c == "/bin/definitely-not-a-shell" {
			t.Error("nonexistent override must not be a candidate")
		}
	}
}

func TestCwdCandidatesEndWithRoot(t *testing.T) {
	m, _ := newTestManager()
	cands := m.cwdCandidates()
	if len(cands) == 0 {
		t.Fatal("no cwd candidates")
	}
	if cands[len(cands)-1] != "/" {
		t.Errorf("last cwd candidate = %q, want platform root", cands[len(cands)-1])
	}
}
