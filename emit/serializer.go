// Package emit writes the declarative-module tree to disk in the layout the
// lint toolchain expects: one directory per module namespace, a versioned
// types file per module version, and a qmldir manifest per directory.
//
// Output is regenerated wholesale on every run. There is no incremental
// patching: partially written trees from an interrupted run are invalid
// until a full rerun completes.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/aggregate"
	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/qmltypes"
)

// ModuleDir describes one serialized declarative-module version, for the
// registrar invoker to consolidate.
type ModuleDir struct {
	Key       qmltypes.ModuleKey
	Dir       string
	TypesJSON string
	// Qmltypes is the canonical stub file the external tool generates from
	// TypesJSON.
	Qmltypes string
	// Registrations is the C++ registration unit the external tool emits
	// alongside the stub.
	Registrations string
	// ClassCount is how many component types the module holds.
	ClassCount int
}

// Serializer renders the finalized tree under an output root.
type Serializer struct {
	outDir string
	log    *zap.SugaredLogger
}

// New creates a serializer writing under outDir.
func New(outDir string, log *zap.SugaredLogger) *Serializer {
	return &Serializer{outDir: outDir, log: log}
}

// Serialize replaces the output root with the rendered tree and returns the
// module directories written, sorted by module key. breadcrumb is recorded
// in a top-level README so a reader can tell how the tree was produced.
// Any write failure here is unrecoverable and aborts the run.
func (s *Serializer) Serialize(tree *aggregate.Tree, breadcrumb string) ([]ModuleDir, error) {
	if err := os.RemoveAll(s.outDir); err != nil {
		return nil, errors.Wrapf(err, "clearing output root %s", s.outDir)
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output root %s", s.outDir)
	}

	readme := "QML type stubs generated automatically using\n" + breadcrumb + "\n"
	if err := os.WriteFile(filepath.Join(s.outDir, "README"), []byte(readme), 0o644); err != nil {
		return nil, errors.Wrap(err, "writing README")
	}

	var dirs []ModuleDir
	manifests := map[string]*manifest{}

	for _, key := range tree.Keys() {
		entries := tree.Entries(key)
		dir := filepath.Join(s.outDir, ModulePath(key))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", dir)
		}

		typesName := fmt.Sprintf("types%d-%d.json", key.Major, key.Minor)
		typesJSON := filepath.Join(dir, typesName)
		if err := qmltypes.WriteFile(typesJSON, renderModules(key, entries)); err != nil {
			return nil, err
		}
		s.log.Debugw("wrote types file", "module", key.String(), "path", typesJSON, "classes", len(entries))

		m := manifests[dir]
		if m == nil {
			m = &manifest{uri: key.URI, lines: map[string]struct{}{}}
			manifests[dir] = m
		}
		m.lines[fmt.Sprintf("typeinfo types%d-%d.qmltypes", key.Major, key.Minor)] = struct{}{}
		for _, entry := range entries {
			for _, dep := range entry.QtModules {
				m.lines["depends "+dep] = struct{}{}
			}
			for _, dep := range entry.PyModules {
				m.lines["depends "+dep] = struct{}{}
			}
		}

		dirs = append(dirs, ModuleDir{
			Key:           key,
			Dir:           dir,
			TypesJSON:     typesJSON,
			Qmltypes:      filepath.Join(dir, fmt.Sprintf("types%d-%d.qmltypes", key.Major, key.Minor)),
			Registrations: filepath.Join(dir, fmt.Sprintf("qmltyperegistrations%d-%d.cpp", key.Major, key.Minor)),
			ClassCount:    len(entries),
		})
	}

	for dir, m := range manifests {
		if err := m.write(dir); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

// ModulePath maps a module key to its directory below the output root: one
// path segment per URI dot-segment, with the major version appended to the
// final segment for majors beyond 1, following the runtime's versioned
// module-path convention.
func ModulePath(key qmltypes.ModuleKey) string {
	segments := strings.Split(key.URI, ".")
	if key.Major > 1 {
		segments[len(segments)-1] += "." + strconv.Itoa(key.Major)
	}
	return filepath.Join(segments...)
}

// renderModules produces the types-file entries for one module version:
// one entry per component type, sorted by class name for stable output.
func renderModules(key qmltypes.ModuleKey, entries []qmltypes.TypeEntry) []qmltypes.Module {
	sorted := make([]qmltypes.TypeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Class.ClassName != sorted[j].Class.ClassName {
			return sorted[i].Class.ClassName < sorted[j].Class.ClassName
		}
		return sorted[i].Class.QualifiedClassName < sorted[j].Class.QualifiedClassName
	})

	modules := make([]qmltypes.Module, 0, len(sorted))
	for _, entry := range sorted {
		modules = append(modules, qmltypes.Module{
			Classes:        []qmltypes.Class{entry.Class},
			OutputRevision: qmltypes.OutputRevision,
			ImportMajor:    key.Major,
			ImportMinor:    key.Minor,
			QtModules:      emptyNotNil(entry.QtModules),
			PyModules:      emptyNotNil(entry.PyModules),
			InputFile:      entry.InputFile,
		})
	}
	return modules
}

// emptyNotNil keeps JSON output as [] rather than null.
func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// manifest is one qmldir file: the module line followed by its sorted
// directives.
type manifest struct {
	uri   string
	lines map[string]struct{}
}

func (m *manifest) write(dir string) error {
	var b strings.Builder
	b.WriteString("module " + m.uri + "\n")
	lines := make([]string, 0, len(m.lines))
	for line := range m.lines {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	for _, line := range lines {
		b.WriteString(line + "\n")
	}

	path := filepath.Join(dir, "qmldir")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
