// Package registrar locates the external type-registration toolchain and
// drives it over the serialized module tree. Tool failures are reported
// per module and never abort the run.
package registrar

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/qmlstub/stubgen/emit"
	"github.com/qmlstub/stubgen/errors"
)

// InvokeError describes one failed consolidation run.
type InvokeError struct {
	Module   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *InvokeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("qmltyperegistrar failed for %s (exit %d): %s", e.Module, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("qmltyperegistrar failed for %s: %v", e.Module, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// Invoker runs the consolidation tool once per serialized module version.
type Invoker struct {
	toolPath string
	foreign  []string
	log      *zap.SugaredLogger
}

// NewInvoker wires the tool path and the core metatypes files that every
// invocation passes as foreign types.
func NewInvoker(toolPath string, metatypes *MetatypesIndex, log *zap.SugaredLogger) *Invoker {
	return &Invoker{toolPath: toolPath, foreign: metatypes.Files(), log: log}
}

// Consolidate invokes the tool for each module directory. Every module's
// types file, plus the core metatypes, is offered as foreign types to every
// invocation so cross-module references resolve. Failures are collected and
// returned; remaining modules still run.
func (inv *Invoker) Consolidate(ctx context.Context, dirs []emit.ModuleDir) []*InvokeError {
	foreign := make([]string, 0, len(inv.foreign)+len(dirs))
	foreign = append(foreign, inv.foreign...)
	for _, d := range dirs {
		foreign = append(foreign, d.TypesJSON)
	}

	var failures []*InvokeError
	for _, d := range dirs {
		if err := inv.runOne(ctx, d, foreign); err != nil {
			failures = append(failures, err)
			continue
		}
		inv.log.Infow("consolidated module", "module", d.Key.String(), "qmltypes", d.Qmltypes)
	}
	return failures
}

func (inv *Invoker) runOne(ctx context.Context, d emit.ModuleDir, foreign []string) *InvokeError {
	args := []string{
		d.TypesJSON,
		"-o", d.Registrations,
		"--generate-qmltypes", d.Qmltypes,
		"--import-name", d.Key.URI,
		"--major-version", strconv.Itoa(d.Key.Major),
		"--minor-version", strconv.Itoa(d.Key.Minor),
		"--foreign-types", strings.Join(foreign, ","),
	}

	cmd := exec.CommandContext(ctx, inv.toolPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	inv.log.Debugw("invoking qmltyperegistrar", "module", d.Key.String(), "args", args)
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &InvokeError{
			Module:   d.Key.String(),
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      errors.Wrapf(err, "running %s", inv.toolPath),
		}
	}
	return nil
}
