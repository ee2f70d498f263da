// Package fileutil provides filesystem probe helpers shared by the shell
// discovery and engine resolution code. It has no HTTP dependencies.
package fileutil

import (
	"os"
	"runtime"
)

// Exists reports whether path refers to an existing file or directory.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path refers to an existing directory.
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsExecutableFile reports whether path is a regular file the current user
// can execute. On Windows existence is enough; there is no executable bit.
func IsExecutableFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// FirstExisting returns the first path in candidates that exists, or "".
func FirstExisting(candidates ...string) string {
	for _, c := range candidates {
		if Exists(c) {
			return c
		}
	}
	return ""
}
