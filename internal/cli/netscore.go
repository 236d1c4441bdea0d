package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
)

func newNetScoreCmd() *cobra.Command {
	var (
		total, correct, wrong int
		penalty               float64
	)
	cmd := &cobra.Command{
		Use:     "netscore",
		Short:   "Compute the net score of an exam attempt",
		Example: "  planctl netscore --total 40 --correct 30 --wrong 6",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if correct < 0 || wrong < 0 {
				return fmt.Errorf("correct and wrong must not be negative")
			}
			attempt := models.ExamAttempt{TotalQuestions: total, Answers: make([]models.ExamAnswer, 0, correct+wrong)}
			answered := "x"
			for i := 0; i < correct; i++ {
				attempt.Answers = append(attempt.Answers, models.ExamAnswer{IsCorrect: true, SelectedAnswer: &answered})
			}
			for i := 0; i < wrong; i++ {
				attempt.Answers = append(attempt.Answers, models.ExamAnswer{SelectedAnswer: &answered})
			}

			score, err := planner.NewNetScoreCalculator(penalty).Calculate(attempt)
			if err != nil {
				return err
			}
			return writeJSON(cmd, score)
		},
	}
	cmd.Flags().IntVar(&total, "total", 0, "number of questions")
	cmd.Flags().IntVar(&correct, "correct", 0, "correct answers")
	cmd.Flags().IntVar(&wrong, "wrong", 0, "wrong answers")
	cmd.Flags().Float64Var(&penalty, "penalty", planner.DefaultWrongAnswerPenalty, "net points lost per wrong answer")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}
