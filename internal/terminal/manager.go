package terminal

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/fileutil"
	"github.com/pokymono/kisame-sub001/internal/shellenv"
)

// Sink receives session notifications destined for a UI surface. Sends to a
// surface that is no longer live must be dropped by the implementation, not
// queued and not errored.
type Sink interface {
	TerminalData(surfaceID string, id int64, data []byte)
	TerminalExit(surfaceID string, id int64, exitCode int)
}

// Manager is the registry of live sessions. It is constructed once per host
// run, handed to the IPC layer, and torn down on shutdown — sessions never
// outlive the host process.
type Manager struct {
	platform shellenv.Platform
	sink     Sink

	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*Session
}

func NewManager(platform shellenv.Platform, sink Sink) *Manager {
	return &Manager{
		platform: platform,
		sink:     sink,
		sessions: make(map[int64]*Session),
	}
}

// Create spawns a new interactive shell for the given surface. Candidate
// shells and working directories are tried as a Cartesian product in order;
// the first pair that spawns wins. Only total exhaustion is an error, and
// that error enumerates every candidate tried — a failed terminal is
// otherwise undebuggable.
func (m *Manager) Create(surfaceID string, cols, rows uint16, shellOverride string) (int64, error) {
	return m.createFrom(surfaceID, cols, rows, m.shellCandidates(shellOverride), m.cwdCandidates())
}

func (m *Manager) createFrom(surfaceID string, cols, rows uint16, shells, cwds []string) (int64, error) {
	var lastErr error
	for _, shell := range shells {
		for _, cwd := range cwds {
			sess, err := startSession(shell, shellenv.LoginArgs(shell), cwd, shellenv.BuildEnv(m.platform, shell), cols, rows)
			if err != nil {
				lastErr = err
				continue
			}

			m.mu.Lock()
			m.nextID++
			id := m.nextID
			m.sessions[id] = sess
			m.mu.Unlock()

			log.Info().
				Int64("terminal_id", id).
				Str("shell", shell).
				Str("cwd", cwd).
				Msg("terminal session created")

			go m.pump(surfaceID, id, sess)
			return id, nil
		}
	}
	return 0, fmt.Errorf(
		"terminal spawn failed after trying shells [%s] against cwds [%s]: last error: %v",
		strings.Join(shells, ", "), strings.Join(cwds, ", "), lastErr,
	)
}

// pump forwards shell output to the owning surface until the PTY drains,
// then reaps the process and sends the exit notification. One pump per
// session is what preserves per-session output ordering.
func (m *Manager) pump(surfaceID string, id int64, sess *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := sess.ptmx.Read(buf)
		if n > 0 {
			m.sink.TerminalData(surfaceID, id, append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			break
		}
	}

	code := sess.wait()
	m.sink.TerminalExit(surfaceID, id, code)
	m.remove(id)

	log.Info().Int64("terminal_id", id).Int("exit_code", code).Msg("terminal session exited")
}

// Write forwards input to a session. Unknown ids are silent no-ops: the
// terminal may have already exited and that race is not the caller's fault.
func (m *Manager) Write(id int64, data []byte) {
	if sess := m.get(id); sess != nil {
		_, _ = sess.Write(data)
	}
}

// Resize adjusts a session's window. No-op for unknown ids.
func (m *Manager) Resize(id int64, cols, rows uint16) {
	if sess := m.get(id); sess != nil {
		_ = sess.Resize(cols, rows)
	}
}

// Kill terminates a session and deregisters it immediately, even if the
// process takes longer to actually die. Idempotent; unknown ids are no-ops.
func (m *Manager) Kill(id int64) {
	m.mu.Lock()
	sess := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

// Shutdown kills every registered session and clears the registry.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	doomed := make([]*Session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		doomed = append(doomed, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range doomed {
		sess.Close()
	}
	if len(doomed) > 0 {
		log.Info().Int("count", len(doomed)).Msg("terminated all terminal sessions")
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) get(id int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *Manager) remove(id int64) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// shellCandidates builds the ordered, deduplicated executable list for a
// spawn attempt: explicit override, login shell, every discovered shell,
// the environment's shell, then the platform's hardcoded last resorts.
func (m *Manager) shellCandidates(override string) []string {
	var cands []string
	if override != "" && m.platform.Usable(override) {
		cands = append(cands, override)
	}
	if login := m.platform.LoginShell(); login != "" {
		cands = append(cands, login)
	}
	for _, d := range shellenv.ListShells(m.platform) {
		cands = append(cands, d.Path)
	}
	if env := os.Getenv("SHELL"); env != "" {
		cands = append(cands, env)
	}
	cands = append(cands, m.platform.FallbackShells()...)
	return dedup(cands)
}

// cwdCandidates: home directory, process working directory, platform root.
func (m *Manager) cwdCandidates() []string {
	var cands []string
	if home, err := os.UserHomeDir(); err == nil && fileutil.IsDir(home) {
		cands = append(cands, home)
	}
	if wd, err := os.Getwd(); err == nil && fileutil.IsDir(wd) {
		cands = append(cands, wd)
	}
	cands = append(cands, m.platform.RootDir())
	return dedup(cands)
}

func dedup(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
