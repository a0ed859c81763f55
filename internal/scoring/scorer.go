// Package scoring grades a respondent's answer set against a form's question
// set. Scoring is pure and total: malformed or missing per-unit answers
// degrade to zero credit, never to an error.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/formforge/formforge/internal/form"
)

// Score computes the graded report for answers against questions. A question
// contributes nothing to either side of the ratio only when the respondent
// supplied no answer object for it at all; a present-but-partial answer is
// graded unit by unit, with missing sub-units counting as incorrect.
func Score(questions []form.Question, answers form.AnswerSet) form.Report {
	rep := form.Report{PerQuestion: make(map[string]form.QuestionScore, len(questions))}
	for _, q := range questions {
		if q.Body == nil {
			continue
		}
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		g := grader{raw: raw}
		q.Body.Accept(&g)
		g.score.FullyCorrect = g.score.TotalUnits > 0 && g.score.EarnedUnits == g.score.TotalUnits
		rep.PerQuestion[q.ID] = g.score
		rep.TotalUnits += g.score.TotalUnits
		rep.EarnedUnits += g.score.EarnedUnits
	}
	rep.Percentage = percentage(rep.EarnedUnits, rep.TotalUnits)
	return rep
}

func percentage(earned, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(earned) / float64(total)))
}

// grader visits exactly one question body per instance. It implements
// form.BodyVisitor, so a new question variant cannot ship without a grading
// rule here.
type grader struct {
	raw   json.RawMessage
	score form.QuestionScore
}

// VisitCategorize counts one denominator unit and awards nothing: the data
// model carries no correct categorization to grade against.
func (g *grader) VisitCategorize(*form.CategorizeBody) {
	g.score.TotalUnits = 1
}

// VisitCloze scores one unit per blank, requiring an exact, case-sensitive
// match with no normalization.
func (g *grader) VisitCloze(b *form.ClozeBody) {
	var ans form.ClozeAnswer
	_ = json.Unmarshal(g.raw, &ans)
	g.score.TotalUnits = len(b.Blanks)
	for _, bl := range b.Blanks {
		if sel, ok := ans[bl.ID]; ok && sel == bl.CorrectAnswer {
			g.score.EarnedUnits++
		}
	}
}

// VisitComprehension scores one unit per sub-question by strict index
// equality. A sub-question whose author never set a correct option still
// counts toward the denominator but can never be earned.
func (g *grader) VisitComprehension(b *form.ComprehensionBody) {
	var ans form.ComprehensionAnswer
	_ = json.Unmarshal(g.raw, &ans)
	g.score.TotalUnits = len(b.SubQuestions)
	for _, sq := range b.SubQuestions {
		if sq.CorrectOption == nil {
			continue
		}
		if sel, ok := ans[sq.ID]; ok && sel == *sq.CorrectOption {
			g.score.EarnedUnits++
		}
	}
}
