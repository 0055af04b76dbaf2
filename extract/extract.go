// Package extract turns raw registrations into metaobject records.
//
// The extractor is a pure function of the registry and the native type
// index: it never touches the loaded modules again, so module handles can be
// discarded as soon as loading finishes.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/qmltypes"
	"github.com/qmlstub/stubgen/registry"
)

// Warning records an unmappable declared type. It is diagnostic, never
// fatal: the affected slot is written as UnknownType and extraction of the
// class continues.
type Warning struct {
	Module string
	Class  string
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Module, w.Class, w.Detail)
}

// Extractor maps registry declarations into stub type entries.
type Extractor struct {
	reg    *registry.Registry
	native NativeIndex
	log    *zap.SugaredLogger
}

// New creates an extractor over reg using native to recognize core
// reflectable base types.
func New(reg *registry.Registry, native NativeIndex, log *zap.SugaredLogger) *Extractor {
	if native == nil {
		native = NoNative
	}
	return &Extractor{reg: reg, native: native, log: log}
}

// Extract produces one TypeEntry per applied declaration, in declaration
// order, together with any warnings raised along the way.
func (e *Extractor) Extract() ([]qmltypes.TypeEntry, []Warning) {
	var (
		entries  []qmltypes.TypeEntry
		warnings []Warning
	)
	for _, decl := range e.reg.Declarations() {
		entry, warns := e.extractOne(decl)
		entries = append(entries, entry)
		warnings = append(warnings, warns...)
	}
	return entries, warnings
}

func (e *Extractor) extractOne(decl registry.Declaration) (qmltypes.TypeEntry, []Warning) {
	var warnings []Warning
	depends := map[string]struct{}{}

	warn := func(format string, args ...any) {
		w := Warning{
			Module: decl.Source.ID,
			Class:  decl.Type.QualifiedName,
			Detail: fmt.Sprintf(format, args...),
		}
		warnings = append(warnings, w)
		e.log.Warnw("extraction warning", "module", w.Module, "class", w.Class, "detail", w.Detail)
	}

	cls := qmltypes.Class{
		ClassName:          decl.Type.ClassName,
		QualifiedClassName: decl.Type.QualifiedName,
		Object:             true,
		SuperClasses:       e.superChain(decl, depends),
		ClassInfos:         e.classInfos(decl.Type),
		Enums:              extractEnums(decl.Type.Enums),
		Properties:         e.properties(decl, depends, warn),
		Signals:            e.signalMethods(decl, depends, warn),
		Slots:              e.slotMethods(decl, depends, warn),
	}

	entry := qmltypes.TypeEntry{
		Key:       decl.Key,
		Class:     cls,
		InputFile: decl.Source.RelPath,
		QtModules: sortedUnique(decl.Imports),
		PyModules: sortedSet(depends),
	}
	return entry, warnings
}

// superChain walks the declared ancestor chain nearest-first and stops at
// the first ancestor the runtime can already describe: a registered
// component (whose record lives elsewhere in the output) or a native core
// type. Ancestors known to neither are carried by name so the chain stays
// unbroken, and deeper links are not followed past the first known base.
func (e *Extractor) superChain(decl registry.Declaration, depends map[string]struct{}) []qmltypes.SuperClass {
	var chain []qmltypes.SuperClass
	for _, super := range decl.Type.SuperClasses {
		if e.reg.HasComponent(super) {
			name, _ := e.reg.LookupClassName(super)
			chain = append(chain, qmltypes.SuperClass{Access: "public", Name: name})
			if key, ok := e.reg.LookupModule(super); ok && key != decl.Key {
				depends[key.String()] = struct{}{}
			}
			return chain
		}
		if e.native.Has(super) {
			chain = append(chain, qmltypes.SuperClass{Access: "public", Name: super})
			return chain
		}
		chain = append(chain, qmltypes.SuperClass{Access: "public", Name: super})
	}
	if len(chain) == 0 {
		chain = []qmltypes.SuperClass{{Access: "public", Name: "QObject"}}
	}
	return chain
}

// classInfos merges explicit registration metadata with the markup-facing
// flags (element name, singleton, creatability) the way the runtime's
// registration calls attach them.
func (e *Extractor) classInfos(t registry.TypeDecl) []qmltypes.ClassInfo {
	infos := make([]qmltypes.ClassInfo, 0, len(t.ClassInfos)+4)
	for _, ci := range t.ClassInfos {
		infos = append(infos, qmltypes.ClassInfo{Name: ci.Name, Value: ci.Value})
	}

	element := t.ElementName
	if element == "" || element == "auto" {
		element = t.ClassName
	}
	if t.Anonymous {
		element = "anonymous"
	}
	infos = append(infos, qmltypes.ClassInfo{Name: "QML.Element", Value: element})

	if t.Singleton {
		infos = append(infos, qmltypes.ClassInfo{Name: "QML.Singleton", Value: "true"})
	}
	if t.Uncreatable || t.UncreatableReason != "" {
		infos = append(infos, qmltypes.ClassInfo{Name: "QML.Creatable", Value: "false"})
		if t.UncreatableReason != "" {
			infos = append(infos, qmltypes.ClassInfo{Name: "QML.UncreatableReason", Value: t.UncreatableReason})
		}
	}
	return infos
}

// extractEnums orders members by value, not declaration order, matching the
// runtime's enumeration semantics. Names break value ties.
func extractEnums(decls []registry.EnumDecl) []qmltypes.Enum {
	enums := make([]qmltypes.Enum, 0, len(decls))
	for _, d := range decls {
		members := make([]registry.EnumMember, len(d.Members))
		copy(members, d.Members)
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Value != members[j].Value {
				return members[i].Value < members[j].Value
			}
			return members[i].Name < members[j].Name
		})
		values := make([]string, len(members))
		for i, m := range members {
			values[i] = m.Name
		}
		enums = append(enums, qmltypes.Enum{
			IsClass: d.IsClass,
			IsFlag:  d.IsFlag,
			Name:    d.Name,
			Type:    "quint16",
			Values:  values,
		})
	}
	return enums
}

func (e *Extractor) properties(decl registry.Declaration, depends map[string]struct{}, warn func(string, ...any)) []qmltypes.Property {
	props := make([]qmltypes.Property, 0, len(decl.Type.Properties))
	for i, p := range decl.Type.Properties {
		mapped, ok := e.mapType(p.Type, decl.Key, depends)
		if !ok {
			warn("property %s has unmappable type %q", p.Name, p.Type)
		}
		read := p.Read
		if read == "" && p.Write == "" {
			// Accessor-less declarations are plain readable properties; the
			// runtime reads them through the property name itself.
			read = p.Name
		}
		props = append(props, qmltypes.Property{
			Name:   p.Name,
			Type:   mapped,
			Index:  i,
			Notify: p.Notify,
			Read:   read,
			Write:  p.Write,
		})
	}
	return props
}

func (e *Extractor) signalMethods(decl registry.Declaration, depends map[string]struct{}, warn func(string, ...any)) []qmltypes.Method {
	methods := make([]qmltypes.Method, 0, len(decl.Type.Signals))
	for _, s := range decl.Type.Signals {
		if isPrivateName(s.Name) {
			continue
		}
		methods = append(methods, qmltypes.Method{
			Access:     "public",
			Name:       s.Name,
			Arguments:  e.arguments(s.Name, s.Parameters, decl.Key, depends, warn),
			ReturnType: "void",
		})
	}
	return methods
}

func (e *Extractor) slotMethods(decl registry.Declaration, depends map[string]struct{}, warn func(string, ...any)) []qmltypes.Method {
	methods := make([]qmltypes.Method, 0, len(decl.Type.Methods))
	for _, m := range decl.Type.Methods {
		if isPrivateName(m.Name) {
			continue
		}
		ret, ok := e.mapType(m.ReturnType, decl.Key, depends)
		if !ok {
			warn("method %s has unmappable return type %q", m.Name, m.ReturnType)
		}
		methods = append(methods, qmltypes.Method{
			Access:     "public",
			Name:       m.Name,
			Arguments:  e.arguments(m.Name, m.Parameters, decl.Key, depends, warn),
			ReturnType: ret,
		})
	}
	return methods
}

func (e *Extractor) arguments(owner string, params []registry.ParamDecl, key qmltypes.ModuleKey, depends map[string]struct{}, warn func(string, ...any)) []qmltypes.Argument {
	args := make([]qmltypes.Argument, 0, len(params))
	for i, p := range params {
		mapped, ok := e.mapType(p.Type, key, depends)
		if !ok {
			warn("%s parameter %d has unmappable type %q", owner, i, p.Type)
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		args = append(args, qmltypes.Argument{Name: name, Type: mapped})
	}
	return args
}

// mapType resolves one declared type name. Component references become
// pointers to the referenced class and record a cross-module dependency;
// everything else goes through the primitive vocabulary or ends up unknown.
func (e *Extractor) mapType(declared string, from qmltypes.ModuleKey, depends map[string]struct{}) (string, bool) {
	if mapped, ok := TypeMapping[declared]; ok {
		return mapped, true
	}
	if e.reg.HasComponent(declared) {
		name, _ := e.reg.LookupClassName(declared)
		if key, ok := e.reg.LookupModule(declared); ok && key != from {
			depends[key.String()] = struct{}{}
		}
		return name + "*", true
	}
	if e.native.Has(declared) {
		return declared + "*", true
	}
	return UnknownType, false
}

// isPrivateName reports whether a member name is private convention and not
// exposed to the declarative runtime.
func isPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}

func sortedUnique(values []string) []string {
	set := map[string]struct{}{}
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
