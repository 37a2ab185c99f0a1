// Package discover finds the application's installation directory and the
// bundled script files inside it.
package discover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// EnvInstallPath overrides discovery with an explicit base directory.
const EnvInstallPath = "ANTIGRAVITY_PATH"

// Target is one bundled script file to patch.
type Target struct {
	Path  string `json:"path"`  // absolute path
	Label string `json:"label"` // short display name
}

var (
	workbenchRel   = []string{"resources", "app", "out", "vs", "workbench", "workbench.desktop.main.js"}
	jetskiAgentRel = []string{"resources", "app", "out", "jetskiAgent", "main.js"}
)

// Targets returns the fixed list of bundles under base, in patch order.
func Targets(base string) []Target {
	return []Target{
		{Path: filepath.Join(append([]string{base}, workbenchRel...)...), Label: "workbench"},
		{Path: filepath.Join(append([]string{base}, jetskiAgentRel...)...), Label: "jetskiAgent"},
	}
}

// env and homeDir are swapped in tests.
var (
	env     = os.Getenv
	homeDir = os.UserHomeDir
)

// candidates returns the per-OS base directories to probe, in priority order.
func candidates(goos string) []string {
	home, _ := homeDir()
	switch goos {
	case "windows":
		var out []string
		if v := env("LOCALAPPDATA"); v != "" {
			out = append(out, filepath.Join(v, "Programs", "Antigravity"))
		}
		for _, key := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)"} {
			if v := env(key); v != "" {
				out = append(out, filepath.Join(v, "Antigravity"))
			}
		}
		return out
	case "darwin":
		out := []string{"/Applications/Antigravity.app/Contents/Resources"}
		if home != "" {
			out = append(out, filepath.Join(home, "Applications", "Antigravity.app", "Contents", "Resources"))
		}
		return out
	default:
		out := []string{"/usr/share/antigravity", "/opt/antigravity"}
		if home != "" {
			out = append(out, filepath.Join(home, ".local", "share", "antigravity"))
		}
		return out
	}
}

// FindInstallation returns the base directory of the installation, or "" when
// none is found. A non-empty override (or $ANTIGRAVITY_PATH) is returned as-is
// provided it exists, skipping the per-OS probe.
func FindInstallation(override string) string {
	if override == "" {
		override = env(EnvInstallPath)
	}
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return ""
		}
		if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
			return ""
		}
		return abs
	}
	for _, c := range candidates(runtime.GOOS) {
		if isInstallation(c) {
			return c
		}
	}
	return ""
}

func isInstallation(base string) bool {
	fi, err := os.Stat(filepath.Join(append([]string{base}, workbenchRel...)...))
	return err == nil && !fi.IsDir()
}

// AppVersion reads "<version> (IDE <ideVersion>)" from the bundled package.json
// and product.json, or "unknown".
func AppVersion(base string) string {
	var pkg struct {
		Version string `json:"version"`
	}
	var product struct {
		IDEVersion string `json:"ideVersion"`
	}
	app := filepath.Join(base, "resources", "app")
	if err := readJSON(filepath.Join(app, "package.json"), &pkg); err != nil || pkg.Version == "" {
		return "unknown"
	}
	if err := readJSON(filepath.Join(app, "product.json"), &product); err != nil || product.IDEVersion == "" {
		return pkg.Version
	}
	return pkg.Version + " (IDE " + product.IDEVersion + ")"
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// CompareVersions compares two semver strings (with or without "v" prefix).
// Returns >0 if a > b, <0 if a < b, 0 if equal.
func CompareVersions(a, b string) int {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")

	// Only the leading version token counts: "1.2.3 (IDE 1.104.0)" compares as "1.2.3".
	a, _, _ = strings.Cut(a, " ")
	b, _, _ = strings.Cut(b, " ")

	aBase := strings.SplitN(a, "-", 2)[0]
	bBase := strings.SplitN(b, "-", 2)[0]

	aParts := strings.Split(aBase, ".")
	bParts := strings.Split(bBase, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		ai, _ := strconv.Atoi(aParts[i])
		bi, _ := strconv.Atoi(bParts[i])
		if ai != bi {
			return ai - bi
		}
	}
	if len(aParts) != len(bParts) {
		return len(aParts) - len(bParts)
	}

	// Same base version: a release beats its pre-release.
	aHasPre := strings.Contains(a, "-")
	bHasPre := strings.Contains(b, "-")
	if aHasPre && !bHasPre {
		return -1
	}
	if !aHasPre && bHasPre {
		return 1
	}
	return 0
}
