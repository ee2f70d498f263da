package shellenv

import (
	"os"
	"sort"
	"strings"
)

// BuildEnv constructs the environment for a spawned shell: the inherited
// environment with SHELL, TERM and PATH overridden, and identity variables
// (HOME, USER, LOGNAME, LANG) filled in from the user database when the
// inherited environment lacks them. Entries that would resolve to an empty
// value are dropped rather than passed through.
func BuildEnv(p Platform, shellPath string) []string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	if env["SHELL"] == "" {
		env["SHELL"] = shellPath
	}
	if env["TERM"] == "" {
		env["TERM"] = "xterm-256color"
	}
	env["PATH"] = composePath(env["PATH"], p.SystemPathDirs())

	for key, value := range p.IdentityEnv() {
		if env[key] == "" {
			env[key] = value
		}
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		if env[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// composePath prepends the platform system directories to the inherited
// PATH, deduplicating while preserving first-seen order.
func composePath(inherited string, systemDirs []string) string {
	var parts []string
	parts = append(parts, systemDirs...)
	if inherited != "" {
		parts = append(parts, strings.Split(inherited, string(os.PathListSeparator))...)
	}

	seen := map[string]bool{}
	var out []string
	for _, dir := range parts {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return strings.Join(out, string(os.PathListSeparator))
}
