package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func stubEnv(t *testing.T, vars map[string]string, home string) {
	t.Helper()
	oldEnv, oldHome := env, homeDir
	env = func(k string) string { return vars[k] }
	homeDir = func() (string, error) { return home, nil }
	t.Cleanup(func() { env, homeDir = oldEnv, oldHome })
}

func writeBundle(t *testing.T, base string) {
	t.Helper()
	p := Targets(base)[0].Path
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("var a=1;"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestTargets(t *testing.T) {
	base := filepath.FromSlash("/opt/antigravity")
	want := []Target{
		{Path: filepath.FromSlash("/opt/antigravity/resources/app/out/vs/workbench/workbench.desktop.main.js"), Label: "workbench"},
		{Path: filepath.FromSlash("/opt/antigravity/resources/app/out/jetskiAgent/main.js"), Label: "jetskiAgent"},
	}
	if diff := cmp.Diff(want, Targets(base)); diff != "" {
		t.Fatalf("Targets mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidates(t *testing.T) {
	stubEnv(t, map[string]string{
		"LOCALAPPDATA":      `C:\Users\u\AppData\Local`,
		"PROGRAMFILES(X86)": `C:\Program Files (x86)`,
	}, "/home/u")

	tests := []struct {
		goos string
		want []string
	}{
		{"windows", []string{
			filepath.Join(`C:\Users\u\AppData\Local`, "Programs", "Antigravity"),
			filepath.Join(`C:\Program Files (x86)`, "Antigravity"),
		}},
		{"darwin", []string{
			"/Applications/Antigravity.app/Contents/Resources",
			filepath.Join("/home/u", "Applications", "Antigravity.app", "Contents", "Resources"),
		}},
		{"linux", []string{
			"/usr/share/antigravity",
			"/opt/antigravity",
			filepath.Join("/home/u", ".local", "share", "antigravity"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, candidates(tt.goos)); diff != "" {
				t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindInstallationOverride(t *testing.T) {
	base := t.TempDir()
	stubEnv(t, nil, t.TempDir())

	if got := FindInstallation(base); got != base {
		t.Fatalf("FindInstallation(%q) = %q", base, got)
	}
	if got := FindInstallation(filepath.Join(base, "missing")); got != "" {
		t.Fatalf("missing override: got %q, want empty", got)
	}
}

func TestFindInstallationEnv(t *testing.T) {
	base := t.TempDir()
	stubEnv(t, map[string]string{EnvInstallPath: base}, t.TempDir())
	if got := FindInstallation(""); got != base {
		t.Fatalf("FindInstallation via env = %q, want %q", got, base)
	}
}

func TestFindInstallationHomeCandidate(t *testing.T) {
	home := t.TempDir()
	stubEnv(t, nil, home)

	var base string
	for _, c := range candidates(runtime.GOOS) {
		if strings.HasPrefix(c, home) {
			base = c
		}
	}
	if base == "" {
		t.Skip("no home-relative candidate on this platform")
	}
	writeBundle(t, base)
	// A system-wide installation earlier in the list would legitimately win.
	if got := FindInstallation(""); got == "" {
		t.Fatalf("FindInstallation = empty, want %q", base)
	}
}

func TestAppVersion(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		product string
		want    string
	}{
		{"both", `{"version":"1.11.3"}`, `{"ideVersion":"1.104.0"}`, "1.11.3 (IDE 1.104.0)"},
		{"no product", `{"version":"1.11.3"}`, "", "1.11.3"},
		{"no package", "", `{"ideVersion":"1.104.0"}`, "unknown"},
		{"bad json", `{`, "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			app := filepath.Join(base, "resources", "app")
			if err := os.MkdirAll(app, 0o755); err != nil {
				t.Fatal(err)
			}
			if tt.pkg != "" {
				if err := os.WriteFile(filepath.Join(app, "package.json"), []byte(tt.pkg), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.product != "" {
				if err := os.WriteFile(filepath.Join(app, "product.json"), []byte(tt.product), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if got := AppVersion(base); got != tt.want {
				t.Fatalf("AppVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int // >0, <0, or 0
	}{
		{"0.2.1", "0.2.0", 1},
		{"0.2.0", "0.2.0", 0},
		{"0.1.9", "0.2.0", -1},
		{"0.10.0", "0.2.0", 1},
		{"1.0.0", "0.99.99", 1},
		{"v0.2.1", "0.2.1", 0},
		{"0.2.1-dev", "0.2.1", -1},
		{"0.2.1", "0.2.1-dev", 1},
		{"1.11.3 (IDE 1.104.0)", "1.11.2 (IDE 1.105.0)", 1},
		{"1.11.3 (IDE 1.104.0)", "1.11.3", 0},
		{"unknown", "unknown", 0},
		{"", "0.0.1", -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_vs_%s", tt.a, tt.b), func(t *testing.T) {
			got := CompareVersions(tt.a, tt.b)
			switch {
			case tt.want > 0 && got <= 0:
				t.Fatalf("CompareVersions(%q, %q) = %d, want > 0", tt.a, tt.b, got)
			case tt.want < 0 && got >= 0:
				t.Fatalf("CompareVersions(%q, %q) = %d, want < 0", tt.a, tt.b, got)
			case tt.want == 0 && got != 0:
				t.Fatalf("CompareVersions(%q, %q) = %d, want 0", tt.a, tt.b, got)
			}
		})
	}
}
