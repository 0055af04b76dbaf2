// Package scan discovers component modules in an input source tree.
//
// Discovery is deterministic: modules are yielded in lexicographic order of
// their root-relative path, so downstream stub output is reproducible no
// matter how the filesystem happens to order directory entries.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qmlstub/stubgen/errors"
)

// SourceExt is the file extension of loadable component modules.
const SourceExt = ".wasm"

// Module is one discovered component module: its on-disk location paired
// with the importable identifier derived from its root-relative path.
// Immutable once discovered.
type Module struct {
	// Path is the filesystem path of the module file.
	Path string
	// RelPath is Path relative to the scanned root, slash-separated.
	RelPath string
	// Root is the input directory the module was discovered under.
	Root string
	// ID is the dotted import identifier, e.g. "pkg/sub/a.wasm" -> "pkg.sub.a".
	ID string
}

// Discover walks root and returns every eligible module, sorted by RelPath.
// Ignored directories are pruned without descending (their contents may not
// even be importable). Unreadable paths are returned as errors alongside the
// modules that were found; a bad path never aborts the walk.
//
// Directories are walked whether or not they contain any package marker, so
// namespace-style trees with missing markers are still in scope.
func Discover(root string, ignores []string) ([]Module, []error) {
	var (
		modules []Module
		errs    []error
	)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "reading %s", path))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && IsIgnored(path, ignores) {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != SourceExt || IsIgnored(path, ignores) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			errs = append(errs, errors.Wrapf(relErr, "resolving %s against %s", path, root))
			return nil
		}
		rel = filepath.ToSlash(rel)
		modules = append(modules, Module{
			Path:    path,
			RelPath: rel,
			Root:    root,
			ID:      moduleID(rel),
		})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, errors.Wrapf(walkErr, "walking %s", root))
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].RelPath < modules[j].RelPath })
	return modules, errs
}

// moduleID derives the dotted import identifier from a slash-separated
// root-relative path.
func moduleID(rel string) string {
	trimmed := strings.TrimSuffix(rel, SourceExt)
	return strings.ReplaceAll(trimmed, "/", ".")
}
