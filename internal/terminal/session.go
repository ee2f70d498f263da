// Package terminal owns the pool of PTY-backed interactive shell sessions.
//
// Sessions are created by the Manager, identified by a process-unique
// monotonic id (never the OS pid, which can be recycled), and multiplexed
// to UI surfaces through a Sink. A session's exit notification is always
// the last event sent for its id.
package terminal

import (
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// Session is one spawned interactive shell bridged through a PTY.
type Session struct {
	cmd  *exec.Cmd
	ptmx *os.File

	closeOnce sync.Once
	waitOnce  sync.Once
	exitCode  int
}

func startSession(shellPath string, args []string, cwd string, env []string, cols, rows uint16) (*Session, error) {
	cmd := exec.Command(shellPath, args...)
	cmd.Dir = cwd
	cmd.Env = env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}
	return &Session{cmd: cmd, ptmx: ptmx}, nil
}

// Write forwards raw input to the shell. Errors are ignored by callers;
// a session that died mid-write surfaces through its exit event instead.
func (s *Session) Write(p []byte) (int, error) {
	return s.ptmx.Write(p)
}

// Resize changes the PTY window size.
func (s *Session) Resize(cols, rows uint16) error {
	return pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// Close kills the shell and closes the PTY. Idempotent; reaping is left to
// the output pump, which calls wait after the read side drains.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.ptmx.Close()
	})
}

// wait reaps the process once and returns its exit code.
func (s *Session) wait() int {
	s.waitOnce.Do(func() {
		_ = s.cmd.Wait()
		s.exitCode = -1
		if s.cmd.ProcessState != nil {
			s.exitCode = s.cmd.ProcessState.ExitCode()
		}
	})
	return s.exitCode
}
