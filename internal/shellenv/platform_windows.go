//go:build windows

package shellenv

import (
	"os"
	"path/filepath"

	"github.com/pokymono/kisame-sub001/internal/fileutil"
)

// Current returns the platform strategy for this OS family.
func Current() Platform { return windowsPlatform{} }

type windowsPlatform struct{}

func (windowsPlatform) StaticShells() []ShellDescriptor {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = `C:\Windows`
	}
	return []ShellDescriptor{
		{Label: "PowerShell", Path: filepath.Join(systemRoot, "System32", "WindowsPowerShell", "v1.0", "powershell.exe")},
		{Label: "pwsh", Path: `C:\Program Files\PowerShell\7\pwsh.exe`},
		{Label: "cmd", Path: filepath.Join(systemRoot, "System32", "cmd.exe")},
	}
}

func (windowsPlatform) LoginShell() string { return "" }

func (windowsPlatform) Usable(path string) bool {
	return fileutil.Exists(path)
}

func (p windowsPlatform) FallbackShells() []string {
	var out []string
	for _, d := range p.StaticShells() {
		out = append(out, d.Path)
	}
	return out
}

func (windowsPlatform) RootDir() string {
	if drive := os.Getenv("SystemDrive"); drive != "" {
		return drive + `\`
	}
	return `C:\`
}

func (windowsPlatform) SystemPathDirs() []string { return nil }

func (windowsPlatform) IdentityEnv() map[string]string { return map[string]string{} }
