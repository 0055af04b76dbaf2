package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/qmltypes"
	"github.com/qmlstub/stubgen/scan"
)

func testModule(id string) scan.Module {
	return scan.Module{Path: id, RelPath: id, ID: id}
}

func TestParseDocumentValidation(t *testing.T) {
	_, err := ParseDocument([]byte(`{"types": [{"className": "X"}]}`))
	require.Error(t, err)

	_, err = ParseDocument([]byte(`not json`))
	require.Error(t, err)

	doc, err := ParseDocument([]byte(`{
		"module": {"uri": "Pkg.Sub", "version": "1.0"},
		"types": [{"className": "TypeX", "qualifiedName": "pkg.a.TypeX"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Pkg.Sub", doc.Module.URI)
	require.Len(t, doc.Types, 1)
}

func TestParseVersion(t *testing.T) {
	major, minor, err := ParseVersion("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2, major)
	assert.Equal(t, 5, minor)

	_, _, err = ParseVersion("not-a-version")
	assert.Error(t, err)
}

func TestApplyUsesDefaultModuleContext(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	doc := &Document{
		Module: &ModuleRef{URI: "Pkg.Sub", Version: "1.0"},
		Types: []TypeDecl{
			{ClassName: "TypeX", QualifiedName: "pkg.a.TypeX"},
		},
	}
	require.NoError(t, r.Apply(doc, testModule("pkg.a")))

	assert.True(t, r.HasComponent("pkg.a.TypeX"))
	key, ok := r.LookupModule("pkg.a.TypeX")
	require.True(t, ok)
	assert.Equal(t, qmltypes.ModuleKey{URI: "Pkg.Sub", Major: 1, Minor: 0}, key)
}

func TestApplyVersionInheritance(t *testing.T) {
	r := New(zap.NewNop().Sugar())

	// First module establishes Pkg.Sub 1.2 as the default for the URI.
	require.NoError(t, r.Apply(&Document{
		Module: &ModuleRef{URI: "Pkg.Sub", Version: "1.2"},
		Types:  []TypeDecl{{ClassName: "A", QualifiedName: "pkg.a.A"}},
	}, testModule("pkg.a")))

	// Second module registers under the same URI without a version.
	require.NoError(t, r.Apply(&Document{
		Types: []TypeDecl{{
			ClassName:     "B",
			QualifiedName: "pkg.b.B",
			Module:        &ModuleRef{URI: "Pkg.Sub"},
		}},
	}, testModule("pkg.b")))

	key, ok := r.LookupModule("pkg.b.B")
	require.True(t, ok)
	assert.Equal(t, qmltypes.ModuleKey{URI: "Pkg.Sub", Major: 1, Minor: 2}, key)
}

func TestApplyRejectsUnanchoredType(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	err := r.Apply(&Document{
		Types: []TypeDecl{{ClassName: "X", QualifiedName: "x.X"}},
	}, testModule("x"))
	assert.Error(t, err)
}

func TestApplyIsTransactional(t *testing.T) {
	r := New(zap.NewNop().Sugar())

	// The second type cannot be anchored: no version and no default in
	// scope for its URI. The first type must not survive the failure.
	err := r.Apply(&Document{
		Types: []TypeDecl{
			{ClassName: "Good", QualifiedName: "m.Good",
				Module: &ModuleRef{URI: "Pkg", Version: "1.0"}},
			{ClassName: "Bad", QualifiedName: "m.Bad",
				Module: &ModuleRef{URI: "Elsewhere"}},
		},
	}, testModule("m"))
	require.Error(t, err)

	assert.Empty(t, r.Declarations())
	assert.False(t, r.HasComponent("m.Good"))

	// The failed document's defaults did not leak either: a later
	// version-less reference to Pkg still has nothing to inherit.
	err = r.Apply(&Document{
		Types: []TypeDecl{{ClassName: "C", QualifiedName: "n.C",
			Module: &ModuleRef{URI: "Pkg"}}},
	}, testModule("n"))
	assert.Error(t, err)
}

func TestResolveDelayedAdoptsAnonymousBases(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	require.NoError(t, r.Apply(&Document{
		Module: &ModuleRef{URI: "Pkg", Version: "1.0"},
		Types: []TypeDecl{
			{ClassName: "Base", QualifiedName: "pkg.a.Base", Anonymous: true},
			{ClassName: "Mid", QualifiedName: "pkg.a.Mid", Anonymous: true,
				SuperClasses: []string{"pkg.a.Base"}},
			{ClassName: "Leaf", QualifiedName: "pkg.a.Leaf",
				SuperClasses: []string{"pkg.a.Mid", "pkg.a.Base"}},
			{ClassName: "Orphan", QualifiedName: "pkg.a.Orphan", Anonymous: true},
		},
	}, testModule("pkg.a")))

	assert.False(t, r.HasComponent("pkg.a.Mid"))
	r.ResolveDelayed()

	// Mid and Base joined Leaf's module through the inheritance chain.
	for _, qname := range []string{"pkg.a.Mid", "pkg.a.Base"} {
		key, ok := r.LookupModule(qname)
		require.True(t, ok, qname)
		assert.Equal(t, qmltypes.ModuleKey{URI: "Pkg", Major: 1, Minor: 0}, key)
	}
	// Orphan was never inherited, so it is not a component.
	assert.False(t, r.HasComponent("pkg.a.Orphan"))
}

func TestSameTypeUnderMultipleModulesIsNotAConflict(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	decl := TypeDecl{ClassName: "Shared", QualifiedName: "pkg.s.Shared"}

	require.NoError(t, r.Apply(&Document{
		Module: &ModuleRef{URI: "Alpha", Version: "1.0"},
		Types:  []TypeDecl{decl},
	}, testModule("pkg.s")))
	require.NoError(t, r.Apply(&Document{
		Module: &ModuleRef{URI: "Beta", Version: "2.1"},
		Types:  []TypeDecl{decl},
	}, testModule("pkg.s")))

	require.Len(t, r.Declarations(), 2)
	// Lookup resolves to the first registration.
	key, _ := r.LookupModule("pkg.s.Shared")
	assert.Equal(t, "Alpha", key.URI)
}
