package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/load"
	"github.com/qmlstub/stubgen/logger"
	"github.com/qmlstub/stubgen/pipeline"
	"github.com/qmlstub/stubgen/registrar"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		InDirs:        args,
		OutDir:        v.GetString("out-dir"),
		Ignores:       v.GetStringSlice("ignore"),
		MetatypesDir:  v.GetString("metatypes-dir"),
		RegistrarPath: v.GetString("qmltyperegistrar-path"),
		SkipRegistrar: v.GetBool("skip-registrar"),
		Breadcrumb:    strings.Join(os.Args, " "),
		Log:           logger.Logger.Named("pipeline"),
	}
	if opts.OutDir == "" {
		return errors.New("--out-dir is required (or set STUBGEN_OUT_DIR)")
	}
	if !opts.SkipRegistrar {
		if err := resolveToolchain(&opts); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := load.NewWASILoader(ctx, logger.Logger.Named("load"))
	if err != nil {
		return err
	}
	defer func() { _ = loader.Close(ctx) }()
	opts.Loader = loader

	if v.GetBool("watch") {
		return watchAndRun(ctx, opts)
	}

	report, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	printSummary(report)
	if !report.OK() {
		return errors.Newf("%d problem(s) during stub generation", len(report.Failures))
	}
	return nil
}

// resolveToolchain fills in metatypes dir and registrar path from well-known
// locations when neither flag nor environment provided them.
func resolveToolchain(opts *pipeline.Options) error {
	if opts.MetatypesDir == "" {
		dir, err := registrar.DetectMetatypesDir()
		if err != nil {
			return err
		}
		opts.MetatypesDir = dir
	}
	if opts.RegistrarPath == "" {
		path, err := registrar.DetectRegistrarPath()
		if err != nil {
			return err
		}
		opts.RegistrarPath = path
	}
	return nil
}

// printSummary renders the run outcome for a human reader. Structured logs
// carry the same information for machines.
func printSummary(report *pipeline.Report) {
	pterm.Printf("%s %s modules, %s types, %s module version(s) written\n",
		pterm.Gray("•"),
		pterm.LightCyan(fmt.Sprintf("%d", report.Loaded)),
		pterm.LightCyan(fmt.Sprintf("%d", report.Types)),
		pterm.LightCyan(fmt.Sprintf("%d", len(report.Dirs))))

	if report.OK() {
		pterm.Success.Println("Stub generation complete")
		return
	}

	pterm.Warning.Printf("%d problem(s) during stub generation:\n", len(report.Failures))
	for _, f := range report.Failures {
		label := pterm.Red("[" + string(f.Stage) + "]")
		if f.Module != "" {
			pterm.Printf("  %s %s: %v\n", label, pterm.Yellow(f.Module), f.Err)
		} else {
			pterm.Printf("  %s %v\n", label, f.Err)
		}
	}
}
