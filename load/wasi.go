package load

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

// WASILoader executes component modules as WASI commands inside a wazero
// sandbox. The module's top-level code runs for real — registration only
// happens through execution — but a crash is confined to the sandbox and
// captured as this module's Result. The registration document is read from
// the module's stdout; stderr is kept for diagnostics.
type WASILoader struct {
	runtime wazero.Runtime
	log     *zap.SugaredLogger
	cache   map[string]execution
}

// NewWASILoader creates a loader with a fresh sandbox runtime. The loader
// (and its execution cache) is intended to outlive individual pipeline runs
// within one process.
func NewWASILoader(ctx context.Context, log *zap.SugaredLogger) (*WASILoader, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(err, "instantiating WASI host module")
	}
	return &WASILoader{
		runtime: rt,
		log:     log,
		cache:   make(map[string]execution),
	}, nil
}

// Load executes the module (or reuses its recorded execution) and applies
// its registrations to reg. The cache is keyed by file path: with several
// input roots, distinct files can share a dotted identifier and must still
// execute separately.
func (l *WASILoader) Load(ctx context.Context, mod scan.Module, reg *registry.Registry) Result {
	if exec, ok := l.cache[mod.Path]; ok {
		l.log.Debugw("reusing already-loaded module", "module", mod.ID, "path", mod.Path)
		return finish(exec, mod, reg, true)
	}

	exec := l.execute(ctx, mod)
	l.cache[mod.Path] = exec
	return finish(exec, mod, reg, false)
}

// execute runs the module body once inside the sandbox.
func (l *WASILoader) execute(ctx context.Context, mod scan.Module) execution {
	wasmBytes, err := os.ReadFile(mod.Path)
	if err != nil {
		return execution{kind: KindImport, err: errors.Wrapf(err, "reading %s", mod.Path)}
	}

	compiled, err := l.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return execution{kind: KindImport, err: errors.Wrapf(err, "compiling %s", mod.ID)}
	}
	defer compiled.Close(ctx)

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName(mod.ID).
		WithArgs(mod.ID).
		WithStdout(&stdout).
		WithStderr(&stderr)

	instance, err := l.runtime.InstantiateModule(ctx, compiled, cfg)
	if instance != nil {
		defer instance.Close(ctx)
	}
	if err != nil {
		// proc_exit surfaces as an ExitError even for a clean exit.
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
			err = nil
		}
	}
	if err != nil {
		return execution{kind: KindRuntime, err: withStderr(errors.Wrapf(err, "executing %s", mod.ID), &stderr)}
	}

	doc, err := registry.ParseDocument(stdout.Bytes())
	if err != nil {
		return execution{kind: KindRuntime, err: withStderr(errors.Wrapf(err, "registration output of %s", mod.ID), &stderr)}
	}
	return execution{doc: doc}
}

// Close releases the sandbox runtime. Loaded modules are never individually
// unloaded; teardown happens with the runtime as a whole.
func (l *WASILoader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

func withStderr(err error, stderr *bytes.Buffer) error {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return errors.WithDetail(err, "module stderr: "+msg)
	}
	return err
}
