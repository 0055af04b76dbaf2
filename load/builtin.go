package load

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

// RegisterFunc produces the registration document for one built-in module.
// It stands in for the module's top-level code and may panic; the loader
// contains the fault.
type RegisterFunc func() (*registry.Document, error)

// BuiltinLoader serves registrations from an in-process table of Go
// functions keyed by module identifier. It backs tests and host binaries
// that compile their component set in instead of shipping sandboxed
// modules; the isolation guarantee here is a strictly fault-contained call
// rather than a separate sandbox.
type BuiltinLoader struct {
	mu    sync.Mutex
	log   *zap.SugaredLogger
	funcs map[string]RegisterFunc
	cache map[string]execution
	// execs counts real executions per module, for cache verification.
	execs map[string]int
}

// NewBuiltinLoader creates an empty loader.
func NewBuiltinLoader(log *zap.SugaredLogger) *BuiltinLoader {
	return &BuiltinLoader{
		log:   log,
		funcs: make(map[string]RegisterFunc),
		cache: make(map[string]execution),
		execs: make(map[string]int),
	}
}

// Register installs the registration function for a module identifier.
func (l *BuiltinLoader) Register(id string, fn RegisterFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[id] = fn
}

// Executions reports how many times the module body actually ran.
func (l *BuiltinLoader) Executions(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.execs[id]
}

// Load runs the module's registration function inside a recover fence and
// applies its document to reg. Already-executed modules are re-applied from
// cache without running again.
func (l *BuiltinLoader) Load(_ context.Context, mod scan.Module, reg *registry.Registry) Result {
	l.mu.Lock()
	if exec, ok := l.cache[mod.ID]; ok {
		l.mu.Unlock()
		return finish(exec, mod, reg, true)
	}
	fn, ok := l.funcs[mod.ID]
	l.mu.Unlock()

	if !ok {
		return Result{
			Module: mod,
			Kind:   KindImport,
			Err:    errors.Wrapf(errors.ErrNotFound, "no registration function for module %s", mod.ID),
		}
	}

	exec := runContained(fn, mod)

	l.mu.Lock()
	l.cache[mod.ID] = exec
	l.execs[mod.ID]++
	l.mu.Unlock()

	return finish(exec, mod, reg, false)
}

// runContained invokes fn so that a panic in the module body becomes a
// runtime load failure instead of taking down the process.
func runContained(fn RegisterFunc, mod scan.Module) (exec execution) {
	defer func() {
		if rec := recover(); rec != nil {
			exec = execution{
				kind: KindRuntime,
				err:  errors.Newf("module %s panicked during registration: %v", mod.ID, rec),
			}
		}
	}()

	doc, err := fn()
	if err != nil {
		return execution{kind: KindRuntime, err: errors.Wrapf(err, "module %s registration", mod.ID)}
	}
	if doc == nil {
		return execution{kind: KindRuntime, err: errors.Newf("module %s produced no registration document", mod.ID)}
	}
	return execution{doc: doc}
}
