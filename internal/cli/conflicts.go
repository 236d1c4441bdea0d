package cli

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
)

func newConflictsCmd(validate *validator.Validate) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List conflicts between a schedule and existing blocks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req dto.ConflictsRequest
			if err := decodeFile(file, &req); err != nil {
				return err
			}
			if err := validate.Struct(req); err != nil {
				return fmt.Errorf("invalid conflicts request: %w", err)
			}

			schedule := dto.Blocks(req.Schedule, models.BlockKindStudy)
			existing := dto.Blocks(req.Existing, models.BlockKindCommitment)
			if err := planner.ValidateBlocks(schedule); err != nil {
				return err
			}
			if err := planner.ValidateBlocks(existing); err != nil {
				return err
			}

			conflicts := planner.DetectConflicts(schedule, existing)
			out := dto.ConflictsResponse{Conflicts: conflicts, Count: len(conflicts)}
			for _, c := range conflicts {
				if c.Severity > out.MaxSeverity {
					out.MaxSeverity = c.Severity
				}
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML file with [[schedule]] and [[existing]] blocks")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSlotsCmd(validate *validator.Validate) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List the free slots of a planning horizon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in slotsFile
			if err := decodeFile(file, &in); err != nil {
				return err
			}
			if err := validate.Struct(in.Constraints); err != nil {
				return fmt.Errorf("invalid constraints: %w", err)
			}
			constraints, err := in.Constraints.ToModel()
			if err != nil {
				return err
			}
			if err := planner.ValidateConstraints(constraints); err != nil {
				return err
			}

			slots := planner.FindAvailableSlots(constraints, planner.SlotOptions{
				MaxLength: time.Duration(in.MaxSlotMinutes) * time.Minute,
			})
			out := dto.SlotsResponse{Slots: slots}
			for _, s := range slots {
				out.TotalMinutes += int(s.End.Sub(s.Start) / time.Minute)
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML file with a [constraints] table")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
