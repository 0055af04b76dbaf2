// Package cli wires the stub generation pipeline to its command-line
// surface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qmlstub/stubgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stubgen <in-dir> [<in-dir>...]",
	Short: "Generate declarative-type stubs from component modules",
	Long: `stubgen discovers component modules in the given source trees, executes
them in isolation to collect their type registrations, and writes a
declarative-module stub tree that editors and linters can resolve imports
against. The external qmltyperegistrar tool is then invoked per module to
produce the canonical .qmltypes stubs.

A broken input module never aborts the run: its failure is reported and
every other module still gets stubs.

Examples:
  stubgen ./src --out-dir=./stubs
  stubgen ./src --out-dir=./stubs --ignore=./src/experiments
  stubgen ./src ./plugins --out-dir=./stubs --watch`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		verbose, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonLogs, verbose > 0); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.Flags().String("out-dir", "", "Output directory for the generated stub tree (required)")
	rootCmd.Flags().StringArray("ignore", nil, "Path to exclude from discovery (repeatable)")
	rootCmd.Flags().String("metatypes-dir", "", "Directory holding the toolchain *_metatypes.json files (auto-detected)")
	rootCmd.Flags().String("qmltyperegistrar-path", "", "Path to the qmltyperegistrar executable (auto-detected)")
	rootCmd.Flags().Bool("skip-registrar", false, "Write the stub tree without invoking qmltyperegistrar")
	rootCmd.Flags().Bool("watch", false, "Watch the input trees and regenerate on changes")
	rootCmd.Flags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")
	rootCmd.Flags().CountP("verbose", "v", "Increase log verbosity")
}

// newViper binds flag values with a STUBGEN_ environment fallback, so
// STUBGEN_OUT_DIR and friends work in CI without repeating flags.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("STUBGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	return v, nil
}

// Execute runs the root command. The returned error indicates a failed run;
// per-module failures have already been printed by then.
func Execute() error {
	return rootCmd.Execute()
}
