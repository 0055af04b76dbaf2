// Package registry holds the component registrations collected while input
// modules execute.
//
// The registry is an explicit, per-run object injected into the loaders and
// the extractor. Nothing here is ambient process state: two runs over the
// same sorted module sequence build identical registries, which is what
// makes the stub output reproducible and the aggregator testable in
// isolation.
package registry

import (
	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/qmltypes"
	"github.com/qmlstub/stubgen/scan"
)

// Declaration is one applied type registration: the raw declaration bound to
// the declarative module it was registered under and the source module that
// performed the registration.
type Declaration struct {
	Type    TypeDecl
	Key     qmltypes.ModuleKey
	Source  scan.Module
	Imports []string
}

// Registry accumulates declarations from all loaded modules in one run.
// It is not safe for concurrent writers; module loading is sequential by
// design (module execution has process-wide side effects).
type Registry struct {
	log *zap.SugaredLogger

	decls   []Declaration
	byQName map[string]int // qualified name -> index of first declaration
	// defaults remembers the last-seen version per URI so later
	// registrations without a version decorator can inherit it.
	defaults map[string]qmltypes.ModuleKey
	// pending holds anonymous declarations that have no module of their own
	// yet; they join a module only when a registered type inherits them.
	pending map[string]pendingDecl
}

type pendingDecl struct {
	typ     TypeDecl
	source  scan.Module
	imports []string
}

// New creates an empty registry.
func New(log *zap.SugaredLogger) *Registry {
	return &Registry{
		log:      log,
		byQName:  make(map[string]int),
		defaults: make(map[string]qmltypes.ModuleKey),
		pending:  make(map[string]pendingDecl),
	}
}

// Apply records every registration in doc against source. The document's
// default module context anchors types without an explicit module; a type
// naming a URI without a version inherits the nearest enclosing default
// version. Returns an error only for declarations that cannot be anchored at
// all — such an error is a load failure for the source module.
//
// Apply is transactional: every type is resolved first, and nothing from a
// document that fails partway lands in the registry. A failed load leaves
// the registry exactly as it was.
func (r *Registry) Apply(doc *Document, source scan.Module) error {
	stagedDefaults := make(map[string]qmltypes.ModuleKey)
	var staged []Declaration
	var stagedPending []pendingDecl

	var defaultKey *qmltypes.ModuleKey
	if doc.Module != nil {
		key, err := r.resolveRef(*doc.Module, nil, stagedDefaults)
		if err != nil {
			return errors.Wrapf(err, "module context of %s", source.ID)
		}
		defaultKey = &key
		stagedDefaults[key.URI] = key
	}

	for _, t := range doc.Types {
		if t.Anonymous && t.Module == nil {
			stagedPending = append(stagedPending, pendingDecl{typ: t, source: source, imports: doc.Imports})
			continue
		}

		var key qmltypes.ModuleKey
		switch {
		case t.Module != nil:
			resolved, err := r.resolveRef(*t.Module, defaultKey, stagedDefaults)
			if err != nil {
				return errors.Wrapf(err, "type %s in %s", t.QualifiedName, source.ID)
			}
			key = resolved
			stagedDefaults[key.URI] = key
		case defaultKey != nil:
			key = *defaultKey
		default:
			return errors.Newf("type %s in %s registered without a module context", t.QualifiedName, source.ID)
		}

		staged = append(staged, Declaration{Type: t, Key: key, Source: source, Imports: doc.Imports})
	}

	for uri, key := range stagedDefaults {
		r.defaults[uri] = key
	}
	for _, p := range stagedPending {
		r.pending[p.typ.QualifiedName] = p
	}
	for _, d := range staged {
		r.add(d)
	}
	return nil
}

func (r *Registry) add(d Declaration) {
	if _, seen := r.byQName[d.Type.QualifiedName]; !seen {
		r.byQName[d.Type.QualifiedName] = len(r.decls)
	}
	r.decls = append(r.decls, d)
}

// resolveRef turns a module reference into a concrete key, inheriting the
// version from the enclosing default or the last-seen registration for the
// same URI when the reference carries none. staged holds defaults set
// earlier in the document being applied, visible before they commit.
func (r *Registry) resolveRef(ref ModuleRef, enclosing *qmltypes.ModuleKey, staged map[string]qmltypes.ModuleKey) (qmltypes.ModuleKey, error) {
	if ref.URI == "" {
		return qmltypes.ModuleKey{}, errors.New("module reference has no uri")
	}
	if ref.Version != "" {
		major, minor, err := ParseVersion(ref.Version)
		if err != nil {
			return qmltypes.ModuleKey{}, err
		}
		return qmltypes.ModuleKey{URI: ref.URI, Major: major, Minor: minor}, nil
	}
	if enclosing != nil && enclosing.URI == ref.URI {
		return *enclosing, nil
	}
	if key, ok := staged[ref.URI]; ok {
		return key, nil
	}
	if key, ok := r.defaults[ref.URI]; ok {
		return key, nil
	}
	return qmltypes.ModuleKey{}, errors.Newf("module %s referenced without a version and no default is in scope", ref.URI)
}

// ResolveDelayed attaches anonymous base types to the modules of the
// registered types that inherit them. Call once after all modules have been
// loaded. Anonymous declarations nothing inherits from are dropped.
func (r *Registry) ResolveDelayed() {
	// Superclass chains may reach through several anonymous bases, so keep
	// sweeping until a pass adopts nothing.
	for {
		adopted := false
		for _, d := range r.decls {
			for _, super := range d.Type.SuperClasses {
				p, ok := r.pending[super]
				if !ok {
					continue
				}
				delete(r.pending, super)
				r.add(Declaration{Type: p.typ, Key: d.Key, Source: p.source, Imports: p.imports})
				adopted = true
			}
		}
		if !adopted {
			break
		}
	}
	for qname := range r.pending {
		r.log.Debugw("dropping anonymous type never inherited by a registered component", "type", qname)
	}
}

// HasComponent is the capability check: does this qualified name identify a
// registered component type.
func (r *Registry) HasComponent(qualifiedName string) bool {
	_, ok := r.byQName[qualifiedName]
	return ok
}

// LookupModule returns the declarative module the qualified name was first
// registered under.
func (r *Registry) LookupModule(qualifiedName string) (qmltypes.ModuleKey, bool) {
	idx, ok := r.byQName[qualifiedName]
	if !ok {
		return qmltypes.ModuleKey{}, false
	}
	return r.decls[idx].Key, true
}

// LookupClassName resolves a qualified name to its class name.
func (r *Registry) LookupClassName(qualifiedName string) (string, bool) {
	idx, ok := r.byQName[qualifiedName]
	if !ok {
		return "", false
	}
	return r.decls[idx].Type.ClassName, true
}

// Declarations returns every applied declaration in arrival order. Arrival
// order is deterministic because module loading follows sorted discovery
// order.
func (r *Registry) Declarations() []Declaration {
	return r.decls
}
