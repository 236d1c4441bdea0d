package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/planner"
)

type optimizeOutput struct {
	Seed int64 `json:"seed"`
	*planner.Result
	DurationMs int64 `json:"durationMs"`
}

func newOptimizeCmd(opts *options, validate *validator.Validate) *cobra.Command {
	var (
		file string
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize a study schedule from a TOML request",
		Example: `  planctl optimize -f week.toml
  planctl optimize -f week.toml --seed 42`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in optimizeFile
			if err := decodeFile(file, &in); err != nil {
				return err
			}
			req, err := in.request(validate)
			if err != nil {
				return err
			}
			constraints, err := req.Constraints.ToModel()
			if err != nil {
				return err
			}
			cfg, err := in.Tuning.config()
			if err != nil {
				return err
			}

			switch {
			case cmd.Flags().Changed("seed"):
				cfg.Seed = seed
			case req.Seed != nil:
				cfg.Seed = *req.Seed
			default:
				cfg.Seed, err = fileSeed(in)
				if err != nil {
					return err
				}
			}

			logger := opts.logger(cmd)
			defer logger.Sync() //nolint:errcheck

			start := time.Now()
			result, err := planner.Optimize(cmd.Context(), req.Preferences.ToModel(), constraints, cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			logger.Info("optimization finished",
				zap.Int64("seed", cfg.Seed),
				zap.Int("slots", result.SlotCount),
				zap.Int("generations", result.Generations),
				zap.Float64("fitness", result.Fitness),
				zap.Bool("stalled", result.Stalled),
				zap.Bool("aborted", result.Aborted),
				zap.Duration("duration", elapsed),
			)

			return writeJSON(cmd, optimizeOutput{Seed: cfg.Seed, Result: result, DurationMs: elapsed.Milliseconds()})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML request file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed; overrides the request's seed")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// fileSeed derives a stable seed from the decoded request so that repeated
// runs of the same file agree.
func fileSeed(in optimizeFile) (int64, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("derive seed: %w", err)
	}
	return planner.SeedFrom(payload), nil
}
