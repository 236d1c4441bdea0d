package models

import "time"

// ExamAnswer is one answered (or skipped) question.
type ExamAnswer struct {
	IsCorrect      bool    `json:"isCorrect"`
	SelectedAnswer *string `json:"selectedAnswer,omitempty"`
}

// ExamAttempt is a completed exam as received from the attempt source.
type ExamAttempt struct {
	TotalQuestions int          `json:"totalQuestions"`
	Answers        []ExamAnswer `json:"answers"`
}

// NetScore summarises an attempt. Efficiency is 0 when it is undefined.
type NetScore struct {
	Correct           int     `json:"correct"`
	Wrong             int     `json:"wrong"`
	Empty             int     `json:"empty"`
	Net               float64 `json:"net"`
	Efficiency        float64 `json:"efficiency"`
	EfficiencyDefined bool    `json:"efficiencyDefined"`
}

// ExamResult is a scored attempt stored for a learner.
type ExamResult struct {
	ID         string    `db:"id" json:"id"`
	LearnerID  string    `db:"learner_id" json:"learner_id"`
	Subject    string    `db:"subject" json:"subject"`
	Total      int       `db:"total_questions" json:"total_questions"`
	Correct    int       `db:"correct" json:"correct"`
	Wrong      int       `db:"wrong" json:"wrong"`
	Empty      int       `db:"empty" json:"empty"`
	Net        float64   `db:"net" json:"net"`
	Efficiency float64   `db:"efficiency" json:"efficiency"`
	Penalty    float64   `db:"penalty" json:"penalty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Score rebuilds the NetScore view of a stored result.
func (r ExamResult) Score() NetScore {
	return NetScore{
		Correct:           r.Correct,
		Wrong:             r.Wrong,
		Empty:             r.Empty,
		Net:               r.Net,
		Efficiency:        r.Efficiency,
		EfficiencyDefined: r.Correct+r.Wrong > 0,
	}
}
