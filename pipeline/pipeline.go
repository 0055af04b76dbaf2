// Package pipeline runs the full stub generation sequence: discover
// component modules, execute them, extract metaobject records, aggregate
// the declarative-module tree, serialize it, and consolidate with the
// external toolchain.
//
// Per-module problems are collected into the run report instead of aborting:
// a broken input module costs its own stubs and nothing else. Only
// environmental faults (an unwritable output root) abort the run.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/aggregate"
	"github.com/qmlstub/stubgen/emit"
	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/extract"
	"github.com/qmlstub/stubgen/load"
	"github.com/qmlstub/stubgen/registrar"
	"github.com/qmlstub/stubgen/registry"
	"github.com/qmlstub/stubgen/scan"
)

// Stage identifies where in the run a failure was recorded.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageLoad       Stage = "load"
	StageExtraction Stage = "extraction"
	StageConflict   Stage = "conflict"
	StageRegistrar  Stage = "registrar"
)

// Failure is one recorded, non-fatal problem.
type Failure struct {
	Stage  Stage
	Module string
	Err    error
}

func (f Failure) String() string {
	if f.Module == "" {
		return fmt.Sprintf("[%s] %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", f.Stage, f.Module, f.Err)
}

// Report summarizes one run.
type Report struct {
	Discovered int
	Loaded     int
	Types      int
	Dirs       []emit.ModuleDir
	Failures   []Failure
}

// OK reports whether the run completed without recording any failure.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

func (r *Report) fail(stage Stage, module string, err error) {
	r.Failures = append(r.Failures, Failure{Stage: stage, Module: module, Err: err})
}

// Options configures one pipeline run.
type Options struct {
	// InDirs are the source trees to scan for component modules.
	InDirs []string
	// OutDir is the output root; it is replaced wholesale each run.
	OutDir string
	// Ignores are path prefixes excluded from discovery.
	Ignores []string
	// MetatypesDir holds the toolchain's *_metatypes.json files. Empty means
	// no native type index.
	MetatypesDir string
	// RegistrarPath is the consolidation tool executable.
	RegistrarPath string
	// SkipRegistrar disables the consolidation step entirely.
	SkipRegistrar bool
	// Breadcrumb is recorded in the output README; when empty a command line
	// is reconstructed from the options.
	Breadcrumb string
	// Loader executes component modules. Required.
	Loader load.Loader
	// Log defaults to a no-op logger.
	Log *zap.SugaredLogger
}

func (o *Options) breadcrumb() string {
	if o.Breadcrumb != "" {
		return o.Breadcrumb
	}
	parts := append([]string{"stubgen"}, o.InDirs...)
	parts = append(parts, "--out-dir="+o.OutDir)
	for _, ig := range o.Ignores {
		parts = append(parts, "--ignore="+ig)
	}
	return strings.Join(parts, " ")
}

// Run executes the pipeline once. The returned report carries every
// per-module failure; err is non-nil only for faults that prevent producing
// output at all.
func Run(ctx context.Context, opts Options) (*Report, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Loader == nil {
		return nil, errors.New("pipeline: no module loader configured")
	}
	if len(opts.InDirs) == 0 {
		return nil, errors.New("pipeline: no input directories")
	}
	if opts.OutDir == "" {
		return nil, errors.New("pipeline: no output directory")
	}

	report := &Report{}

	var modules []scan.Module
	for _, root := range opts.InDirs {
		found, errs := scan.Discover(root, opts.Ignores)
		modules = append(modules, found...)
		for _, err := range errs {
			report.fail(StageDiscovery, "", err)
		}
	}
	report.Discovered = len(modules)
	log.Infow("discovered component modules", "count", len(modules))

	// Loading is sequential on purpose: registration order feeds default
	// version inheritance, and sorted discovery order keeps it reproducible.
	reg := registry.New(log.Named("registry"))
	for _, mod := range modules {
		res := opts.Loader.Load(ctx, mod, reg)
		if !res.OK() {
			report.fail(StageLoad, mod.ID, errors.Wrapf(res.Err, "%s failure", res.Kind))
			continue
		}
		report.Loaded++
	}
	reg.ResolveDelayed()

	native, err := registrar.LoadMetatypes(opts.MetatypesDir, log.Named("metatypes"))
	if err != nil {
		return nil, err
	}

	entries, warnings := extract.New(reg, native, log.Named("extract")).Extract()
	for _, w := range warnings {
		report.fail(StageExtraction, w.Module, errors.Newf("%s: %s", w.Class, w.Detail))
	}
	report.Types = len(entries)

	agg := aggregate.New(log.Named("aggregate"))
	for _, entry := range entries {
		agg.Add(entry)
	}
	tree := agg.Finalize()
	for _, c := range tree.Conflicts() {
		report.fail(StageConflict, c.InputFile, errors.New(c.String()))
	}

	dirs, err := emit.New(opts.OutDir, log.Named("emit")).Serialize(tree, opts.breadcrumb())
	if err != nil {
		return report, err
	}
	report.Dirs = dirs

	if !opts.SkipRegistrar {
		inv := registrar.NewInvoker(opts.RegistrarPath, native, log.Named("registrar"))
		for _, fail := range inv.Consolidate(ctx, dirs) {
			report.fail(StageRegistrar, fail.Module, fail)
		}
	}

	log.Infow("run complete",
		"modules", report.Discovered,
		"loaded", report.Loaded,
		"types", report.Types,
		"failures", len(report.Failures))
	return report, nil
}
