// Package backend talks to the remote analysis service: URL resolution,
// health probe, streaming capture upload with progress, the analyze call,
// and the chat relay.
package backend

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DefaultURL is the last-resort backend address.
const DefaultURL = "http://localhost:8787"

// Locator resolves the backend URL from the first usable source:
//
//  1. EnvURL (the KISAME_BACKEND_URL override)
//  2. ConfigFile (explicit config file path, KISAME_BACKEND_CONFIG)
//  3. ~/.config/kisame/backend.conf
//  4. backend.conf next to the host executable
//  5. DefaultURL
//
// A missing, unreadable or malformed file is treated as "not found" and
// skipped; Resolve never fails. Nothing is cached: every call walks the
// chain again so operators can edit config files without a restart.
type Locator struct {
	EnvURL     string
	ConfigFile string
}

func (l *Locator) Resolve() string {
	if u := strings.TrimSpace(l.EnvURL); u != "" {
		return u
	}
	if u := urlFromFile(l.ConfigFile); u != "" {
		return u
	}
	if home, err := os.UserHomeDir(); err == nil {
		if u := urlFromFile(filepath.Join(home, ".config", "kisame", "backend.conf")); u != "" {
			return u
		}
	}
	if exe, err := os.Executable(); err == nil {
		if u := urlFromFile(filepath.Join(filepath.Dir(exe), "backend.conf")); u != "" {
			return u
		}
	}
	return DefaultURL
}

// urlFromFile reads a flat key=value document and returns the backend_url
// value, or "" when the file is absent or holds no usable value.
func urlFromFile(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != "backend_url" && key != "backendUrl" {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
