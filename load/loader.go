// Package load executes discovered component modules and feeds their
// registrations into the run's registry.
//
// Loading is the only stage that runs untrusted input code, so every failure
// mode (unloadable binary, trap during top-level execution, garbage output)
// is captured as a per-module Result. One broken module never aborts the
// run.
package load

import (
	"context"

	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

// ErrorKind classifies a load failure.
type ErrorKind int

const (
	// KindNone means the module loaded and registered cleanly.
	KindNone ErrorKind = iota
	// KindImport means the module could not be brought into an executable
	// state at all (unreadable file, invalid binary, missing imports).
	KindImport
	// KindRuntime means the module's top-level execution started but
	// failed: a trap, a nonzero exit, or an unusable registration document.
	KindRuntime
)

func (k ErrorKind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindRuntime:
		return "runtime"
	default:
		return "ok"
	}
}

// Result is the terminal outcome of loading one module: either its
// registrations were applied to the registry, or a classified failure was
// captured. Created once per module, never mutated.
type Result struct {
	Module scan.Module
	Kind   ErrorKind
	Err    error
	// Cached is true when the module had already been executed earlier in
	// this process and its recorded registrations were re-applied without
	// re-executing the module body.
	Cached bool
}

// OK reports whether the module loaded without error.
func (r Result) OK() bool { return r.Err == nil }

// Loader brings one module identifier into a loaded state inside a
// fault-contained context and applies its registrations to reg.
type Loader interface {
	Load(ctx context.Context, mod scan.Module, reg *registry.Registry) Result
}

// execution is the cached outcome of running a module body once. Re-running
// the pipeline in the same process re-applies the recorded document instead
// of executing the module again.
type execution struct {
	doc  *registry.Document
	kind ErrorKind
	err  error
}

// finish applies a (possibly cached) execution outcome to the registry and
// produces the Result for this load.
func finish(exec execution, mod scan.Module, reg *registry.Registry, cached bool) Result {
	if exec.err != nil {
		return Result{Module: mod, Kind: exec.kind, Err: exec.err, Cached: cached}
	}
	if err := reg.Apply(exec.doc, mod); err != nil {
		return Result{Module: mod, Kind: KindRuntime, Err: err, Cached: cached}
	}
	return Result{Module: mod, Cached: cached}
}
