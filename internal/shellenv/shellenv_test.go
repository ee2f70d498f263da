//go:build !windows

package shellenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakePlatform lets tests control discovery inputs without touching the
// real filesystem layout.
type fakePlatform struct {
	static   []ShellDescriptor
	login    string
	usable   map[string]bool
	pathDirs []string
	identity map[string]string
}

func (f fakePlatform) StaticShells() []ShellDescriptor { return f.static }
func (f fakePlatform) LoginShell() string              { return f.login }
func (f fakePlatform) Usable(p string) bool            { return f.usable[p] }
func (f fakePlatform) FallbackShells() []string        { return nil }
func (f fakePlatform) RootDir() string                 { return "/" }
func (f fakePlatform) SystemPathDirs() []string        { return f.pathDirs }
func (f fakePlatform) IdentityEnv() map[string]string  { return f.identity }

func TestListShellsLoginShellFirst(t *testing.T) {
	p := fakePlatform{
		static: []ShellDescriptor{
			{Label: "bash", Path: "/bin/bash"},
			{Label: "zsh", Path: "/usr/bin/zsh"},
		},
		login:  "/usr/bin/zsh",
		usable: map[string]bool{"/bin/bash": true, "/usr/bin/zsh": true},
	}

	got := ListShells(p)
	if len(got) != 2 {
		t.Fatalf("got %d shells, want 2", len(got))
	}
	if got[0].Path != "/usr/bin/zsh" {
		t.Errorf("first shell = %q, want the login shell", got[0].Path)
	}
	if got[1].Path != "/bin/bash" {
		t.Errorf("second shell = %q", got[1].Path)
	}
}

func TestListShellsSkipsUnusable(t *testing.T) {
	p := fakePlatform{
		static: []ShellDescriptor{
			{Label: "bash", Path: "/bin/bash"},
			{Label: "fish", Path: "/usr/bin/fish"},
		},
		usable: map[string]bool{"/bin/bash": true},
	}

	got := ListShells(p)
	for _, d := range got {
		if d.Path == "/usr/bin/fish" {
			t.Error("unusable shell must not be listed")
		}
	}
}

func TestListShellsNeverFabricates(t *testing.T) {
	// Against the real platform: every descriptor must exist on disk.
	for _, d := range ListShells(Current()) {
		if _, err := os.Stat(d.Path); err != nil {
			t.Errorf("listed shell %q does not exist: %v", d.Path, err)
		}
	}
}

func TestLoginArgs(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"/bin/bash", 1},
		{"/usr/bin/zsh", 1},
		{"/usr/local/bin/fish", 1},
		{"/bin/sh", 0},
		{"/bin/dash", 0},
	}
	for _, c := range cases {
		if got := LoginArgs(c.path); len(got) != c.want {
			t.Errorf("LoginArgs(%q) = %v, want %d args", c.path, got, c.want)
		}
	}
}

func TestBuildEnvOverrides(t *testing.T) {
	t.Setenv("SHELL", "")
	t.Setenv("TERM", "")
	t.Setenv("PATH", "/home/u/bin:/usr/bin")

	p := fakePlatform{
		pathDirs: []string{"/usr/local/bin", "/usr/bin"},
		identity: map[string]string{"LANG": "en_US.UTF-8"},
	}
	env := BuildEnv(p, "/bin/zsh")

	vars := map[string]string{}
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		vars[k] = v
	}

	if vars["SHELL"] != "/bin/zsh" {
		t.Errorf("SHELL = %q, want chosen shell", vars["SHELL"])
	}
	if vars["TERM"] != "xterm-256color" {
		t.Errorf("TERM = %q", vars["TERM"])
	}
	wantPath := "/usr/local/bin:/usr/bin:/home/u/bin"
	if vars["PATH"] != wantPath {
		t.Errorf("PATH = %q, want %q (system dirs prepended, deduped)", vars["PATH"], wantPath)
	}
	if vars["LANG"] != "en_US.UTF-8" {
		t.Errorf("LANG = %q", vars["LANG"])
	}
}

func TestBuildEnvKeepsExistingValues(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("TERM", "screen-256color")
	t.Setenv("LANG", "de_DE.UTF-8")

	p := fakePlatform{identity: map[string]string{"LANG": "en_US.UTF-8"}}
	env := BuildEnv(p, "/bin/zsh")

	joined := strings.Join(env, "\n")
	if !strings.Contains(joined, "SHELL=/bin/bash") {
		t.Error("explicit SHELL should win over the chosen shell")
	}
	if !strings.Contains(joined, "TERM=screen-256color") {
		t.Error("explicit TERM should be preserved")
	}
	if !strings.Contains(joined, "LANG=de_DE.UTF-8") {
		t.Error("explicit LANG should win over the identity default")
	}
}

func TestBuildEnvDropsEmptyEntries(t *testing.T) {
	t.Setenv("KISAME_EMPTY_PROBE", "")
	env := BuildEnv(fakePlatform{}, "/bin/sh")
	for _, kv := range env {
		if strings.HasPrefix(kv, "KISAME_EMPTY_PROBE=") {
			t.Error("empty-valued entries must be dropped")
		}
	}
}

func TestCurrentPlatformBasics(t *testing.T) {
	p := Current()
	if p.RootDir() != "/" {
		t.Errorf("RootDir = %q", p.RootDir())
	}
	if len(p.SystemPathDirs()) == 0 {
		t.Error("unix platform should declare system PATH dirs")
	}
	for _, d := range p.StaticShells() {
		if !filepath.IsAbs(d.Path) {
			t.Errorf("static shell path %q should be absolute", d.Path)
		}
	}
}
