// Package engine invokes the bundled forensic engine as a subprocess. It is
// the local fallback path: used only when the remote backend is unreachable
// or fails, so a backend outage never blocks the user from getting a result.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/fileutil"
)

// Request carries the analysis parameters through to the engine. Request
// parameters travel as arguments; only the decoder path goes via the
// environment.
type Request struct {
	Path       string
	MaxPackets int
	SkipHash   bool
}

// Runner resolves and runs the engine entry point. Zero-value fields fall
// back to platform defaults at call time.
type Runner struct {
	PythonBin  string // interpreter override; else python3 (unix) / python (windows)
	Entry      string // entry-point override; else services/forensic-engine/main.py next to the executable
	TsharkPath string // decoder override; else well-known locations, then TSHARK_PATH
}

// RunError reports an engine invocation failure with everything needed to
// diagnose it: exit code, captured output, and the underlying cause.
type RunError struct {
	Err      error
	ExitCode int // -1 when the process did not run to completion
	Stdout   string
	Stderr   string
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "local engine: %v (exit code %d)", e.Err, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "; stderr: %s", s)
	}
	if s := strings.TrimSpace(e.Stdout); s != "" {
		fmt.Fprintf(&b, "; stdout: %s", s)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Err }

// Analyze runs `<interpreter> <entry> analyze <path> [--max-packets N]
// [--skip-hash]` and parses the entire stdout as one JSON document. A
// non-zero exit or unparseable output is a hard error; there is no retry.
func (r *Runner) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	interp := r.interpreter()
	entry, err := r.entryPoint()
	if err != nil {
		return nil, fmt.Errorf("local engine: %w", err)
	}

	args := []string{entry, "analyze", req.Path}
	if req.MaxPackets > 0 {
		args = append(args, "--max-packets", strconv.Itoa(req.MaxPackets))
	}
	if req.SkipHash {
		args = append(args, "--skip-hash")
	}

	cmd := exec.CommandContext(ctx, interp, args...)
	cmd.Env = os.Environ()
	if tshark := r.resolveTshark(); tshark != "" {
		cmd.Env = append(cmd.Env, "TSHARK_PATH="+tshark)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("interpreter", interp).
		Str("entry", entry).
		Str("capture", req.Path).
		Msg("invoking local engine")

	if err := cmd.Run(); err != nil {
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		return nil, &RunError{
			Err:      err,
			ExitCode: code,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	payload := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(payload) {
		return nil, &RunError{
			Err:      fmt.Errorf("stdout is not a valid JSON document"),
			ExitCode: 0,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}
	return json.RawMessage(payload), nil
}

func (r *Runner) interpreter() string {
	if r.PythonBin != "" {
		return r.PythonBin
	}
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

func (r *Runner) entryPoint() (string, error) {
	if r.Entry != "" {
		return r.Entry, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "services", "forensic-engine", "main.py"), nil
}

// resolveTshark probes the platform's well-known install locations, then
// the TSHARK_PATH override. Empty is acceptable: the engine does its own
// PATH lookup when the variable is absent.
func (r *Runner) resolveTshark() string {
	if r.TsharkPath != "" {
		return r.TsharkPath
	}
	if found := fileutil.FirstExisting(wellKnownTshark()...); found != "" {
		return found
	}
	return os.Getenv("TSHARK_PATH")
}

func wellKnownTshark() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Wireshark.app/Contents/MacOS/tshark",
			"/opt/homebrew/bin/tshark",
			"/usr/local/bin/tshark",
		}
	case "windows":
		return []string{
			`C:\Program Files\Wireshark\tshark.exe`,
			`C:\Program Files (x86)\Wireshark\tshark.exe`,
		}
	default:
		return []string{
			"/usr/bin/tshark",
			"/usr/local/bin/tshark",
		}
	}
}
