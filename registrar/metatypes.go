package registrar

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/errors"
)

// MetatypesIndex is the set of core reflectable class names, built from the
// toolchain's *_metatypes.json files. The extractor uses it to stop
// superclass walks at native ancestors, and the invoker passes the same
// files to the consolidation tool as foreign types.
type MetatypesIndex struct {
	classes map[string]struct{}
	files   []string
}

// metatypesUnit mirrors just what we need from one metatypes file entry.
type metatypesUnit struct {
	Classes []struct {
		ClassName          string `json:"className"`
		QualifiedClassName string `json:"qualifiedClassName"`
	} `json:"classes"`
}

// LoadMetatypes indexes every *_metatypes.json under dir. Files that fail
// to parse are skipped with a debug log; an empty dir yields an empty
// index, which is still usable.
func LoadMetatypes(dir string, log *zap.SugaredLogger) (*MetatypesIndex, error) {
	idx := &MetatypesIndex{classes: make(map[string]struct{})}
	if dir == "" {
		return idx, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*_metatypes.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "scanning metatypes dir %s", dir)
	}
	sort.Strings(matches)

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Debugw("skipping unreadable metatypes file", "path", path, "error", err)
			continue
		}
		var units []metatypesUnit
		if err := json.Unmarshal(data, &units); err != nil {
			log.Debugw("skipping unparseable metatypes file", "path", path, "error", err)
			continue
		}
		for _, unit := range units {
			for _, cls := range unit.Classes {
				if cls.ClassName != "" {
					idx.classes[cls.ClassName] = struct{}{}
				}
				if cls.QualifiedClassName != "" {
					idx.classes[cls.QualifiedClassName] = struct{}{}
				}
			}
		}
		idx.files = append(idx.files, path)
	}

	log.Debugw("indexed core metatypes", "files", len(idx.files), "classes", len(idx.classes))
	return idx, nil
}

// Has reports whether name is a core reflectable class.
func (ix *MetatypesIndex) Has(name string) bool {
	_, ok := ix.classes[name]
	return ok
}

// Files returns the indexed metatypes file paths.
func (ix *MetatypesIndex) Files() []string {
	return ix.files
}
