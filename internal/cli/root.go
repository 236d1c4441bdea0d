// Package cli implements planctl, an offline front end to the planning engine.
package cli

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	verbose bool
}

// Execute runs the planctl root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "planctl",
		Short:         "Optimize study schedules and score exams from the terminal",
		Long:          "planctl runs the study planner engine on TOML request files without a database or the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log search progress to stderr")

	validate := validator.New()
	rootCmd.AddCommand(
		newOptimizeCmd(opts, validate),
		newConflictsCmd(validate),
		newSlotsCmd(validate),
		newNetScoreCmd(),
	)
	return rootCmd
}

func (o *options) logger(cmd *cobra.Command) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		cmd.PrintErrln("logger disabled:", err)
		return zap.NewNop()
	}
	return l
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
