package registry

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/qmlstub/stubgen/errors"
)

// Document is the registration payload a component module emits when it is
// executed. One document describes everything the module registered: the
// default declarative-module context, the core runtime modules it imports,
// and each component type declaration.
type Document struct {
	// Module is the default registration context for types that do not name
	// their own declarative module.
	Module *ModuleRef `json:"module,omitempty"`
	// Imports lists core runtime modules (e.g. "QtQuick") the source module
	// uses. These become depends entries in the emitted manifests.
	Imports []string `json:"imports,omitempty"`
	// Types are the registered component type declarations.
	Types []TypeDecl `json:"types"`
}

// ModuleRef names a declarative module, optionally with a "major.minor"
// version. A ref with a URI but no version inherits the nearest enclosing
// default version at registration time.
type ModuleRef struct {
	URI     string `json:"uri"`
	Version string `json:"version,omitempty"`
}

// TypeDecl is the raw declaration of one component type as registered by the
// module. Field vocabulary matches what the reflection side of the runtime
// reports; the extractor maps it into the stub schema.
type TypeDecl struct {
	ClassName     string `json:"className"`
	QualifiedName string `json:"qualifiedName"`
	// ElementName is the markup-visible name; empty or "auto" means the
	// class name is used.
	ElementName string     `json:"elementName,omitempty"`
	Module      *ModuleRef `json:"module,omitempty"`
	// SuperClasses lists ancestor qualified names, nearest first.
	SuperClasses []string        `json:"superClasses,omitempty"`
	Properties   []PropertyDecl  `json:"properties,omitempty"`
	Signals      []SignalDecl    `json:"signals,omitempty"`
	Methods      []MethodDecl    `json:"methods,omitempty"`
	Enums        []EnumDecl      `json:"enums,omitempty"`
	ClassInfos   []ClassInfoDecl `json:"classInfos,omitempty"`
	Singleton    bool            `json:"singleton,omitempty"`
	// UncreatableReason marks the type non-instantiable from markup.
	UncreatableReason string `json:"uncreatableReason,omitempty"`
	Uncreatable       bool   `json:"uncreatable,omitempty"`
	// Anonymous types are not registered directly; they only become part of
	// a module when a registered type inherits from them.
	Anonymous bool `json:"anonymous,omitempty"`
}

// PropertyDecl describes one property. Read/Write hold accessor names; an
// empty Read with Readable unset means the property name itself reads it.
type PropertyDecl struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Read   string `json:"read,omitempty"`
	Write  string `json:"write,omitempty"`
	Notify string `json:"notify,omitempty"`
}

// SignalDecl describes one signal with its ordered parameters.
type SignalDecl struct {
	Name       string      `json:"name"`
	Parameters []ParamDecl `json:"parameters,omitempty"`
}

// MethodDecl describes one invokable method.
type MethodDecl struct {
	Name       string      `json:"name"`
	Parameters []ParamDecl `json:"parameters,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`
}

// ParamDecl is one ordered parameter.
type ParamDecl struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// EnumDecl describes a nested enumeration with explicit member values.
type EnumDecl struct {
	Name    string       `json:"name"`
	IsClass bool         `json:"isClass,omitempty"`
	IsFlag  bool         `json:"isFlag,omitempty"`
	Members []EnumMember `json:"members"`
}

// EnumMember is one named enumeration value.
type EnumMember struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ClassInfoDecl is arbitrary name/value registration metadata.
type ClassInfoDecl struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseDocument decodes a registration document emitted by a loaded module.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrBadDocument, err.Error())
	}
	for i, t := range doc.Types {
		if t.QualifiedName == "" {
			return nil, errors.Wrapf(errors.ErrBadDocument, "type %d has no qualifiedName", i)
		}
		if t.ClassName == "" {
			return nil, errors.Wrapf(errors.ErrBadDocument, "type %q has no className", t.QualifiedName)
		}
	}
	return &doc, nil
}

// ParseVersion parses a "major.minor" declarative-module version string.
// Patch components and leading "v" are tolerated and discarded.
func ParseVersion(s string) (major, minor int, err error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid module version %q", s)
	}
	return int(v.Major()), int(v.Minor()), nil
}
