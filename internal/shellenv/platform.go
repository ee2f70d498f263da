// Package shellenv discovers usable command interpreters and builds the
// environment for spawned terminal sessions.
//
// All OS-family differences live behind the Platform interface with one
// implementation per family, selected once at startup; callers never branch
// on runtime.GOOS themselves.
package shellenv

import "path/filepath"

// ShellDescriptor is a discovered candidate interpreter. Descriptors are
// recomputed on every listing; none is ever fabricated for a path that does
// not exist.
type ShellDescriptor struct {
	Label string
	Path  string
	Args  []string
}

// Platform captures the OS-family-specific pieces of shell and environment
// handling.
type Platform interface {
	// StaticShells is the ordered candidate list (label + expected install
	// path) probed during listing. Paths may not exist; callers filter.
	StaticShells() []ShellDescriptor

	// LoginShell returns the caller's configured login shell, or "".
	LoginShell() string

	// Usable reports whether path exists and is executable by the current
	// user (existence alone on Windows).
	Usable(path string) bool

	// FallbackShells is the hardcoded last-resort spawn list.
	FallbackShells() []string

	// RootDir is the last-resort working directory.
	RootDir() string

	// SystemPathDirs are prepended to PATH for spawned shells. Empty on
	// Windows.
	SystemPathDirs() []string

	// IdentityEnv resolves HOME/USER/LOGNAME/LANG style variables from the
	// OS user database. Keys with unusable values are absent from the map.
	IdentityEnv() map[string]string
}

// LoginArgs returns the interactive login flag for recognized POSIX shells
// so profile files get sourced; other shells get no extra arguments.
func LoginArgs(shellPath string) []string {
	switch filepath.Base(shellPath) {
	case "bash", "zsh", "fish":
		return []string{"-l"}
	}
	return nil
}

// ListShells returns every currently usable shell, login shell first. Order
// defines both the default shell and the spawn fallback order.
func ListShells(p Platform) []ShellDescriptor {
	var out []ShellDescriptor
	seen := map[string]bool{}

	if login := p.LoginShell(); login != "" && p.Usable(login) {
		out = append(out, ShellDescriptor{
			Label: filepath.Base(login),
			Path:  login,
			Args:  LoginArgs(login),
		})
		seen[login] = true
	}

	for _, cand := range p.StaticShells() {
		if seen[cand.Path] || !p.Usable(cand.Path) {
			continue
		}
		seen[cand.Path] = true
		cand.Args = LoginArgs(cand.Path)
		out = append(out, cand)
	}
	return out
}
