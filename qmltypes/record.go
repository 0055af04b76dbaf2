package qmltypes

import (
	"fmt"
	"reflect"
	"sort"
)

// ModuleKey identifies one declarative module namespace: a dotted URI plus a
// major.minor version.
type ModuleKey struct {
	URI   string
	Major int
	Minor int
}

// String renders the key the way qmldir depends lines reference modules.
func (k ModuleKey) String() string {
	return fmt.Sprintf("%s %d.%d", k.URI, k.Major, k.Minor)
}

// Less orders keys by URI, then major, then minor.
func (k ModuleKey) Less(other ModuleKey) bool {
	if k.URI != other.URI {
		return k.URI < other.URI
	}
	if k.Major != other.Major {
		return k.Major < other.Major
	}
	return k.Minor < other.Minor
}

// TypeEntry is the immutable structural snapshot of one registered component
// type: the metaobject record of this pipeline. Created by the extractor and
// owned by the aggregator's module tree afterwards; never mutated.
type TypeEntry struct {
	// Key is the declarative module the type is registered under.
	Key ModuleKey
	// Class is the full reflected interface.
	Class Class
	// InputFile is the root-relative path of the source module that
	// registered the type.
	InputFile string
	// QtModules lists core runtime modules the source module imports.
	QtModules []string
	// PyModules lists declarative modules the type's interface depends on,
	// as "URI M.m" references.
	PyModules []string
}

// StructurallyEqual reports whether two entries describe the identical
// interface: same superclasses, properties, signals, slots, and enums,
// element for element and in the same order. Which source file performed
// the registration does not matter; the same type surfacing through two
// import paths is still the same type.
func (e TypeEntry) StructurallyEqual(other TypeEntry) bool {
	return reflect.DeepEqual(e.Class, other.Class)
}

// SortedKeys returns the keys of a per-module map in deterministic order.
func SortedKeys[V any](m map[ModuleKey]V) []ModuleKey {
	keys := make([]ModuleKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
