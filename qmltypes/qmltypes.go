// Package qmltypes defines the on-disk schema consumed by qmltyperegistrar.
//
// The JSON layout (field names, member order, 4-space indentation, omitted
// empty fields, outputRevision constant) must stay byte-compatible with what
// the external tool expects; do not reorder struct fields.
package qmltypes

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/qmlstub/stubgen/errors"
)

// OutputRevision is the metatypes revision qmltyperegistrar understands.
const OutputRevision = 68

// Argument is one named, typed method or signal parameter.
type Argument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Method describes an invokable method or a signal.
type Method struct {
	Access     string     `json:"access"`
	Name       string     `json:"name"`
	Arguments  []Argument `json:"arguments"`
	ReturnType string     `json:"returnType"`
}

// Property describes one reflectable property.
type Property struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Index  int    `json:"index"`
	Notify string `json:"notify,omitempty"`
	Read   string `json:"read,omitempty"`
	Write  string `json:"write,omitempty"`
}

// Enum describes a nested enumeration with members in value order.
type Enum struct {
	IsClass bool     `json:"isClass"`
	IsFlag  bool     `json:"isFlag"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Values  []string `json:"values"`
}

// ClassInfo is one name/value pair of registration metadata.
type ClassInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SuperClass references an ancestor by name.
type SuperClass struct {
	Access string `json:"access"`
	Name   string `json:"name"`
}

// Class is the full structural description of one component type.
type Class struct {
	ClassName          string       `json:"className"`
	QualifiedClassName string       `json:"qualifiedClassName"`
	Object             bool         `json:"object"`
	SuperClasses       []SuperClass `json:"superClasses"`
	ClassInfos         []ClassInfo  `json:"classInfos"`
	Enums              []Enum       `json:"enums"`
	Properties         []Property   `json:"properties"`
	Signals            []Method     `json:"signals"`
	Slots              []Method     `json:"slots"`
}

// Module is one per-input-file entry in a types file.
type Module struct {
	Classes        []Class  `json:"classes"`
	OutputRevision int      `json:"outputRevision"`
	ImportMajor    int      `json:"QML_IMPORT_MAJOR_VERSION"`
	ImportMinor    int      `json:"QML_IMPORT_MINOR_VERSION"`
	QtModules      []string `json:"QT_MODULES"`
	PyModules      []string `json:"PY_MODULES"`
	InputFile      string   `json:"inputFile"`
}

// WriteFile serializes modules to path with the exact formatting the
// consolidation tool expects.
func WriteFile(path string, modules []Module) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(modules); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	// json.Encoder appends a trailing newline; keep it, the registrar
	// tolerates it and the file stays diff-friendly.
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ReadFile parses a previously written types file.
func ReadFile(path string) ([]Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var modules []Module
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return modules, nil
}
