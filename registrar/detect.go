package registrar

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/qmlstub/stubgen/errors"
)

// Candidate locations for environment auto-detection. Both lookups are
// overridable via flags/env; detection is only a convenience fallback.
var (
	metatypesDirCandidates = []string{
		"/usr/lib/qt6/metatypes",
		"/usr/lib/x86_64-linux-gnu/qt6/metatypes",
		"/usr/local/lib/qt6/metatypes",
		"/usr/share/qt6/metatypes",
	}
	registrarCandidates = []string{
		"/usr/lib/qt6/qmltyperegistrar",
		"/usr/lib/qt6/libexec/qmltyperegistrar",
		"/usr/local/lib/qt6/libexec/qmltyperegistrar",
	}
)

// DetectMetatypesDir probes well-known locations for the core metatype
// files.
func DetectMetatypesDir() (string, error) {
	for _, dir := range metatypesDirCandidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", errors.WithHint(
		errors.Wrap(errors.ErrToolchain, "could not find metatypes directory"),
		"provide it with --metatypes-dir")
}

// DetectRegistrarPath locates the qmltyperegistrar executable via PATH and
// well-known toolchain locations.
func DetectRegistrarPath() (string, error) {
	if path, err := exec.LookPath("qmltyperegistrar"); err == nil {
		return path, nil
	}
	for _, candidate := range registrarCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return filepath.Clean(candidate), nil
		}
	}
	return "", errors.WithHint(
		errors.Wrap(errors.ErrToolchain, "could not find qmltyperegistrar"),
		"provide it with --qmltyperegistrar-path")
}
