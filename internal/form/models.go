package form

import "encoding/json"

// AnswerSet maps question ID -> raw answer payload. The payload shape depends
// on the question type and is decoded by the scorer, which treats anything it
// cannot decode as zero credit.
type AnswerSet map[string]json.RawMessage

type Form struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	HeaderImage string     `json:"headerImage,omitempty"`
	Questions   []Question `json:"questions"`
	IsPublished bool       `json:"isPublished"`
	OwnerID     string     `json:"userId,omitempty"` // empty: anonymous form
	CreatedAt   int64      `json:"created_at,omitempty"`
	UpdatedAt   int64      `json:"updated_at,omitempty"`
}

// QuestionScore is the graded outcome of a single question.
type QuestionScore struct {
	EarnedUnits  int  `json:"earnedUnits"`
	TotalUnits   int  `json:"totalUnits"`
	FullyCorrect bool `json:"fullyCorrect"`
}

// Report aggregates per-unit credit across a whole form. Percentage is
// computed once over the form-wide totals, so questions with more blanks or
// sub-questions weigh proportionally more.
type Report struct {
	TotalUnits  int                      `json:"totalUnits"`
	EarnedUnits int                      `json:"earnedUnits"`
	Percentage  int                      `json:"percentage"`
	PerQuestion map[string]QuestionScore `json:"perQuestion"`
}

// Response is the durable record of one respondent's submission. At most one
// exists per (FormID, RespondentID); it is never mutated after creation.
type Response struct {
	ID           string    `json:"id"`
	FormID       string    `json:"formId"`
	RespondentID string    `json:"userId"`
	Answers      AnswerSet `json:"answers"`
	Score        Report    `json:"score"`
	SubmittedAt  int64     `json:"submittedAt"`
}
