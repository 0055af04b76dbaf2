package load

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

func TestWASILoaderMissingFileIsImportFailure(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWASILoader(ctx, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer loader.Close(ctx)

	mod := scan.Module{ID: "pkg.gone", Path: filepath.Join(t.TempDir(), "gone.wasm")}
	res := loader.Load(ctx, mod, registry.New(zap.NewNop().Sugar()))
	require.False(t, res.OK())
	assert.Equal(t, KindImport, res.Kind)
}

func TestWASILoaderInvalidBinaryIsImportFailure(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWASILoader(ctx, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer loader.Close(ctx)

	path := filepath.Join(t.TempDir(), "junk.wasm")
	require.NoError(t, os.WriteFile(path, []byte("definitely not wasm"), 0o644))

	mod := scan.Module{ID: "pkg.junk", Path: path}
	res := loader.Load(ctx, mod, registry.New(zap.NewNop().Sugar()))
	require.False(t, res.OK())
	assert.Equal(t, KindImport, res.Kind)

	// The failure is cached like any other execution outcome.
	again := loader.Load(ctx, mod, registry.New(zap.NewNop().Sugar()))
	require.False(t, again.OK())
	assert.True(t, again.Cached)
}

func TestWASILoaderCacheIsPerPathNotPerID(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWASILoader(ctx, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer loader.Close(ctx)

	// Two input roots can each hold pkg/a.wasm; the shared identifier must
	// not make the second file reuse the first file's execution.
	rootA, rootB := t.TempDir(), t.TempDir()
	pathA := filepath.Join(rootA, "a.wasm")
	pathB := filepath.Join(rootB, "a.wasm")
	require.NoError(t, os.WriteFile(pathA, []byte("junk a"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("junk b"), 0o644))

	reg := registry.New(zap.NewNop().Sugar())
	first := loader.Load(ctx, scan.Module{ID: "pkg.a", Path: pathA}, reg)
	require.False(t, first.OK())
	assert.False(t, first.Cached)

	second := loader.Load(ctx, scan.Module{ID: "pkg.a", Path: pathB}, reg)
	require.False(t, second.OK())
	assert.False(t, second.Cached)

	again := loader.Load(ctx, scan.Module{ID: "pkg.a", Path: pathA}, reg)
	assert.True(t, again.Cached)
}
