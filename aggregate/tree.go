// Package aggregate reconciles per-module type entries into the
// declarative-module namespace tree. It is the only pipeline stage holding
// cross-module state.
package aggregate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/qmltypes"
)

// Conflict records a structurally inconsistent duplicate registration: the
// same qualified name registered under the same module and version with a
// different interface. The later registration wins; the conflict is
// reported, never fatal.
type Conflict struct {
	Key           qmltypes.ModuleKey
	QualifiedName string
	InputFile     string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s re-registered under %s with a different interface (from %s)",
		c.QualifiedName, c.Key, c.InputFile)
}

// Tree is the finalized mapping from declarative module to its type
// entries. Read-only once finalized.
type Tree struct {
	modules   map[qmltypes.ModuleKey][]qmltypes.TypeEntry
	conflicts []Conflict
}

// Keys returns the module keys in deterministic order.
func (t *Tree) Keys() []qmltypes.ModuleKey {
	return qmltypes.SortedKeys(t.modules)
}

// Entries returns the type entries registered under key, in registration
// order.
func (t *Tree) Entries(key qmltypes.ModuleKey) []qmltypes.TypeEntry {
	return t.modules[key]
}

// Conflicts returns every conflicting re-registration seen while building
// the tree.
func (t *Tree) Conflicts() []Conflict {
	return t.conflicts
}

// Aggregator builds a Tree incrementally as entries arrive from the
// extractor. Not safe for concurrent use; the pipeline feeds it
// sequentially.
type Aggregator struct {
	log       *zap.SugaredLogger
	modules   map[qmltypes.ModuleKey][]qmltypes.TypeEntry
	conflicts []Conflict
	done      bool
}

// New creates an empty aggregator.
func New(log *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		log:     log,
		modules: make(map[qmltypes.ModuleKey][]qmltypes.TypeEntry),
	}
}

// Add inserts one entry. A duplicate qualified name under the same module
// key must be structurally identical; identical duplicates are dropped,
// divergent ones are recorded as conflicts with the last-seen entry
// winning. The same qualified name under different keys is a type exposed
// through several namespaces and aggregates without complaint.
func (a *Aggregator) Add(entry qmltypes.TypeEntry) {
	if a.done {
		panic("aggregate: Add after Finalize")
	}

	bucket := a.modules[entry.Key]
	for i, existing := range bucket {
		if existing.Class.QualifiedClassName != entry.Class.QualifiedClassName {
			continue
		}
		if existing.StructurallyEqual(entry) {
			// Identical re-registration, e.g. the same type surfacing via
			// two import paths. Nothing to do.
			return
		}
		conflict := Conflict{
			Key:           entry.Key,
			QualifiedName: entry.Class.QualifiedClassName,
			InputFile:     entry.InputFile,
		}
		a.conflicts = append(a.conflicts, conflict)
		a.log.Warnw("conflicting re-registration, keeping later definition",
			"type", conflict.QualifiedName, "module", conflict.Key.String())
		bucket[i] = entry
		return
	}
	a.modules[entry.Key] = append(bucket, entry)
}

// Finalize seals the tree. The aggregator must not be fed afterwards.
func (a *Aggregator) Finalize() *Tree {
	a.done = true
	return &Tree{modules: a.modules, conflicts: a.conflicts}
}
