package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// DefaultWrongAnswerPenalty is the share of a point a wrong answer costs in
// the four-option exam format.
const DefaultWrongAnswerPenalty = 0.25

// NetScoreCalculator scores exam attempts with a fixed wrong-answer penalty.
type NetScoreCalculator struct {
	WrongPenalty float64
}

// NewNetScoreCalculator returns a calculator for the given penalty.
func NewNetScoreCalculator(penalty float64) NetScoreCalculator {
	return NetScoreCalculator{WrongPenalty: penalty}
}

// CalculateNetScore scores an attempt with DefaultWrongAnswerPenalty.
func CalculateNetScore(exam models.ExamAttempt) (models.NetScore, error) {
	return NetScoreCalculator{WrongPenalty: DefaultWrongAnswerPenalty}.Calculate(exam)
}

// Calculate counts correct, wrong and empty answers and derives the net
// score and efficiency. An unanswered question is neither correct nor wrong.
// When no question was answered efficiency is undefined and reported as 0.
func (c NetScoreCalculator) Calculate(exam models.ExamAttempt) (models.NetScore, error) {
	if c.WrongPenalty < 0 || math.IsNaN(c.WrongPenalty) {
		return models.NetScore{}, fmt.Errorf("%w: wrong answer penalty must not be negative", ErrInvalidInput)
	}
	if exam.TotalQuestions < 0 {
		return models.NetScore{}, fmt.Errorf("%w: totalQuestions must not be negative", ErrInvalidInput)
	}
	if len(exam.Answers) > exam.TotalQuestions {
		return models.NetScore{}, fmt.Errorf("%w: %d answers exceed %d questions", ErrInvalidInput, len(exam.Answers), exam.TotalQuestions)
	}

	var score models.NetScore
	for _, answer := range exam.Answers {
		switch {
		case answer.IsCorrect:
			score.Correct++
		case answer.SelectedAnswer != nil:
			score.Wrong++
		}
	}
	score.Empty = exam.TotalQuestions - score.Correct - score.Wrong
	score.Net = float64(score.Correct) - float64(score.Wrong)*c.WrongPenalty
	if answered := score.Correct + score.Wrong; answered > 0 {
		score.Efficiency = float64(score.Correct) / float64(answered) * 100
		score.EfficiencyDefined = true
	}
	return score, nil
}

// SuggestSubjectWeights nudges subject weights toward subjects with weaker
// exam efficiency. Each weight moves by at most a factor of two in either
// direction; subjects without a defined efficiency keep their weight.
// Subjects only present in scores start from weight 1.
func SuggestSubjectWeights(current map[string]float64, scores map[string]models.NetScore) map[string]float64 {
	out := make(map[string]float64, len(current)+len(scores))
	for subject, w := range current {
		out[subject] = w
	}

	subjects := make([]string, 0, len(scores))
	for subject := range scores {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		score := scores[subject]
		base, ok := out[subject]
		if !ok {
			base = 1
		}
		if !score.EfficiencyDefined {
			out[subject] = base
			continue
		}
		// efficiency 100 -> x0.5, efficiency 0 -> x2, 50 -> x1
		factor := math.Pow(2, 1-score.Efficiency/50)
		out[subject] = base * factor
	}
	return out
}
