//go:build !windows

package shellenv

import (
	"os"
	"os/user"
	"runtime"

	"github.com/pokymono/kisame-sub001/internal/fileutil"
)

// Current returns the platform strategy for this OS family.
func Current() Platform { return unixPlatform{} }

type unixPlatform struct{}

func (unixPlatform) StaticShells() []ShellDescriptor {
	if runtime.GOOS == "darwin" {
		return []ShellDescriptor{
			{Label: "zsh", Path: "/bin/zsh"},
			{Label: "bash", Path: "/bin/bash"},
			{Label: "fish", Path: "/opt/homebrew/bin/fish"},
			{Label: "fish", Path: "/usr/local/bin/fish"},
			{Label: "sh", Path: "/bin/sh"},
		}
	}
	return []ShellDescriptor{
		{Label: "bash", Path: "/bin/bash"},
		{Label: "zsh", Path: "/usr/bin/zsh"},
		{Label: "zsh", Path: "/bin/zsh"},
		{Label: "fish", Path: "/usr/bin/fish"},
		{Label: "sh", Path: "/bin/sh"},
	}
}

func (unixPlatform) LoginShell() string {
	return os.Getenv("SHELL")
}

func (unixPlatform) Usable(path string) bool {
	return fileutil.IsExecutableFile(path)
}

func (unixPlatform) FallbackShells() []string {
	return []string{"/bin/sh", "/bin/bash"}
}

func (unixPlatform) RootDir() string { return "/" }

func (unixPlatform) SystemPathDirs() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin", "/bin", "/usr/sbin", "/sbin"}
	}
	return []string{"/usr/local/bin", "/usr/bin", "/bin", "/usr/sbin", "/sbin"}
}

func (unixPlatform) IdentityEnv() map[string]string {
	out := map[string]string{}
	u, err := user.Current()
	if err != nil {
		return out
	}
	if u.HomeDir != "" {
		out["HOME"] = u.HomeDir
	}
	if u.Username != "" {
		out["USER"] = u.Username
		out["LOGNAME"] = u.Username
	}
	out["LANG"] = "en_US.UTF-8"
	return out
}
