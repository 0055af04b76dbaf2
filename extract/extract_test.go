package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/qmltypes"
	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

type fakeNative map[string]bool

func (f fakeNative) Has(name string) bool { return f[name] }

func applyDoc(t *testing.T, reg *registry.Registry, id string, doc *registry.Document) {
	t.Helper()
	require.NoError(t, reg.Apply(doc, scan.Module{Path: id, RelPath: id + ".wasm", ID: id}))
}

func TestExtractRoundTrip(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module:  &registry.ModuleRef{URI: "Pkg.Sub", Version: "1.0"},
		Imports: []string{"QtCore"},
		Types: []registry.TypeDecl{{
			ClassName:     "TypeX",
			QualifiedName: "pkg.a.TypeX",
			SuperClasses:  []string{"Base"},
			Properties: []registry.PropertyDecl{
				{Name: "a", Type: "int", Read: "a", Write: "setA", Notify: "aChanged"},
				{Name: "b", Type: "str", Read: "b"},
			},
			Signals: []registry.SignalDecl{
				{Name: "changed", Parameters: []registry.ParamDecl{{Name: "value", Type: "int"}}},
			},
		}},
	})

	entries, warnings := New(reg, fakeNative{"Base": true}, log).Extract()
	require.Empty(t, warnings)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, qmltypes.ModuleKey{URI: "Pkg.Sub", Major: 1, Minor: 0}, entry.Key)
	assert.Equal(t, "pkg.a.wasm", entry.InputFile)
	assert.Equal(t, []string{"QtCore"}, entry.QtModules)

	cls := entry.Class
	assert.Equal(t, "TypeX", cls.ClassName)
	assert.Equal(t, "pkg.a.TypeX", cls.QualifiedClassName)
	require.Len(t, cls.SuperClasses, 1)
	assert.Equal(t, qmltypes.SuperClass{Access: "public", Name: "Base"}, cls.SuperClasses[0])

	require.Len(t, cls.Properties, 2)
	assert.Equal(t, qmltypes.Property{
		Name: "a", Type: "int", Index: 0, Notify: "aChanged", Read: "a", Write: "setA",
	}, cls.Properties[0])
	assert.Equal(t, qmltypes.Property{
		Name: "b", Type: "QString", Index: 1, Read: "b",
	}, cls.Properties[1])

	require.Len(t, cls.Signals, 1)
	assert.Equal(t, qmltypes.Method{
		Access: "public",
		Name:   "changed",
		Arguments: []qmltypes.Argument{
			{Name: "value", Type: "int"},
		},
		ReturnType: "void",
	}, cls.Signals[0])
}

func TestExtractUnknownTypeWarnsAndContinues(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "T",
			QualifiedName: "pkg.a.T",
			Properties: []registry.PropertyDecl{
				{Name: "weird", Type: "SomethingNobodyKnows", Read: "weird"},
				{Name: "fine", Type: "bool", Read: "fine"},
			},
		}},
	})

	entries, warnings := New(reg, NoNative, log).Extract()
	require.Len(t, entries, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Detail, "SomethingNobodyKnows")

	props := entries[0].Class.Properties
	assert.Equal(t, UnknownType, props[0].Type)
	assert.Equal(t, "bool", props[1].Type)
}

func TestExtractSuperChainStopsAtRegisteredBase(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.base", &registry.Document{
		Module: &registry.ModuleRef{URI: "Base.Mod", Version: "2.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "BaseItem",
			QualifiedName: "pkg.base.BaseItem",
		}},
	})
	applyDoc(t, reg, "pkg.leaf", &registry.Document{
		Module: &registry.ModuleRef{URI: "Leaf.Mod", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "Leaf",
			QualifiedName: "pkg.leaf.Leaf",
			// Unregistered mixin, then a registered base, then deeper
			// ancestors that must not be described.
			SuperClasses: []string{"pkg.leaf.Mixin", "pkg.base.BaseItem", "QObject"},
		}},
	})

	entries, _ := New(reg, fakeNative{"QObject": true}, log).Extract()
	require.Len(t, entries, 2)

	leaf := entries[1]
	require.Len(t, leaf.Class.SuperClasses, 2)
	assert.Equal(t, "pkg.leaf.Mixin", leaf.Class.SuperClasses[0].Name)
	assert.Equal(t, "BaseItem", leaf.Class.SuperClasses[1].Name)
	// Inheriting across modules records a dependency.
	assert.Equal(t, []string{"Base.Mod 2.0"}, leaf.PyModules)
}

func TestExtractCrossModulePropertyDependency(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.other", &registry.Document{
		Module: &registry.ModuleRef{URI: "Other", Version: "3.1"},
		Types: []registry.TypeDecl{{
			ClassName:     "Widget",
			QualifiedName: "pkg.other.Widget",
		}},
	})
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "Holder",
			QualifiedName: "pkg.a.Holder",
			Properties: []registry.PropertyDecl{
				{Name: "w", Type: "pkg.other.Widget", Read: "w"},
			},
		}},
	})

	entries, warnings := New(reg, NoNative, log).Extract()
	require.Empty(t, warnings)
	holder := entries[1]
	assert.Equal(t, "Widget*", holder.Class.Properties[0].Type)
	assert.Equal(t, []string{"Other 3.1"}, holder.PyModules)
}

func TestExtractEnumMembersOrderedByValue(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "Machine",
			QualifiedName: "pkg.a.Machine",
			Enums: []registry.EnumDecl{{
				Name: "State",
				Members: []registry.EnumMember{
					{Name: "Busy", Value: 2},
					{Name: "Idle", Value: 0},
					{Name: "Starting", Value: 1},
				},
			}},
		}},
	})

	entries, _ := New(reg, NoNative, log).Extract()
	enums := entries[0].Class.Enums
	require.Len(t, enums, 1)
	assert.Equal(t, []string{"Idle", "Starting", "Busy"}, enums[0].Values)
	assert.Equal(t, "quint16", enums[0].Type)
}

func TestExtractExcludesPrivateMembers(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:     "T",
			QualifiedName: "pkg.a.T",
			Methods: []registry.MethodDecl{
				{Name: "doWork", ReturnType: "int"},
				{Name: "_internal"},
				{Name: "__dunder__"},
			},
			Signals: []registry.SignalDecl{
				{Name: "done"},
				{Name: "_hidden"},
			},
		}},
	})

	entries, _ := New(reg, NoNative, log).Extract()
	cls := entries[0].Class
	require.Len(t, cls.Slots, 1)
	assert.Equal(t, "doWork", cls.Slots[0].Name)
	require.Len(t, cls.Signals, 1)
	assert.Equal(t, "done", cls.Signals[0].Name)
}

func TestExtractClassInfosCarryRegistrationFlags(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []registry.TypeDecl{{
			ClassName:         "Config",
			QualifiedName:     "pkg.a.Config",
			ElementName:       "AppConfig",
			Singleton:         true,
			UncreatableReason: "use the singleton instance",
			ClassInfos: []registry.ClassInfoDecl{
				{Name: "DefaultProperty", Value: "data"},
			},
		}},
	})

	entries, _ := New(reg, NoNative, log).Extract()
	infos := entries[0].Class.ClassInfos
	assert.Equal(t, []qmltypes.ClassInfo{
		{Name: "DefaultProperty", Value: "data"},
		{Name: "QML.Element", Value: "AppConfig"},
		{Name: "QML.Singleton", Value: "true"},
		{Name: "QML.Creatable", Value: "false"},
		{Name: "QML.UncreatableReason", Value: "use the singleton instance"},
	}, infos)
}

func TestExtractDefaultSuperclassIsQObject(t *testing.T) {
	log := zap.NewNop().Sugar()
	reg := registry.New(log)
	applyDoc(t, reg, "pkg.a", &registry.Document{
		Module: &registry.ModuleRef{URI: "Pkg", Version: "1.0"},
		Types:  []registry.TypeDecl{{ClassName: "T", QualifiedName: "pkg.a.T"}},
	})

	entries, _ := New(reg, NoNative, log).Extract()
	require.Len(t, entries[0].Class.SuperClasses, 1)
	assert.Equal(t, "QObject", entries[0].Class.SuperClasses[0].Name)
}
