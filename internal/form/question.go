package form

import (
	"encoding/json"
	"errors"
	"fmt"
)

type QuestionType string

const (
	TypeCategorize    QuestionType = "categorize"
	TypeCloze         QuestionType = "cloze"
	TypeComprehension QuestionType = "comprehension"
)

// BodyVisitor is implemented by every consumer that must handle all question
// variants (the scorer today, renderers later). Adding a variant means adding
// a Visit method here, so an unhandled type fails to compile instead of
// silently scoring as zero.
type BodyVisitor interface {
	VisitCategorize(*CategorizeBody)
	VisitCloze(*ClozeBody)
	VisitComprehension(*ComprehensionBody)
}

// Body is the closed set of question variants.
type Body interface {
	Type() QuestionType
	Accept(v BodyVisitor)
	Validate() error
	// WithoutAnswerKey returns a copy safe to serve to respondents.
	WithoutAnswerKey() Body
}

type Question struct {
	ID    string
	Title string
	Image string
	Body  Body
}

// CategorizeBody carries items to be dragged into categories. The data model
// has no canonical correct categorization, so it is never auto-gradable.
type CategorizeBody struct {
	Items      []string `json:"items"`
	Categories []string `json:"categories"`
}

func (*CategorizeBody) Type() QuestionType       { return TypeCategorize }
func (b *CategorizeBody) Accept(v BodyVisitor)   { v.VisitCategorize(b) }
func (b *CategorizeBody) WithoutAnswerKey() Body { return b }

func (b *CategorizeBody) Validate() error {
	if len(b.Categories) == 0 {
		return errors.New("categorize: at least one category required")
	}
	return nil
}

// CategorizeAnswer maps category label -> item labels placed there.
type CategorizeAnswer map[string][]string

type Blank struct {
	ID            string `json:"id"`
	CorrectAnswer string `json:"correctAnswer"`
}

// ClozeBody is fill-in-the-blank text with a shared option pool.
type ClozeBody struct {
	Text    string   `json:"text"`
	Blanks  []Blank  `json:"blanks"`
	Options []string `json:"options"`
}

func (*ClozeBody) Type() QuestionType     { return TypeCloze }
func (b *ClozeBody) Accept(v BodyVisitor) { v.VisitCloze(b) }

func (b *ClozeBody) WithoutAnswerKey() Body {
	cp := *b
	cp.Blanks = make([]Blank, len(b.Blanks))
	for i, bl := range b.Blanks {
		cp.Blanks[i] = Blank{ID: bl.ID}
	}
	return &cp
}

func (b *ClozeBody) Validate() error {
	if len(b.Blanks) == 0 {
		return errors.New("cloze: at least one blank required")
	}
	seen := map[string]bool{}
	for _, bl := range b.Blanks {
		if bl.ID == "" {
			return errors.New("cloze: blank id required")
		}
		if seen[bl.ID] {
			return fmt.Errorf("cloze: duplicate blank id %q", bl.ID)
		}
		seen[bl.ID] = true
	}
	return nil
}

// ClozeAnswer maps blank ID -> selected option.
type ClozeAnswer map[string]string

type SubQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	// CorrectOption is nil when the author never picked one; such a
	// sub-question still counts toward the denominator but can never be
	// earned.
	CorrectOption *int `json:"correctAnswer,omitempty"`
}

// ComprehensionBody is a passage with multiple-choice sub-questions.
type ComprehensionBody struct {
	Passage      string        `json:"passage"`
	SubQuestions []SubQuestion `json:"subQuestions"`
}

func (*ComprehensionBody) Type() QuestionType     { return TypeComprehension }
func (b *ComprehensionBody) Accept(v BodyVisitor) { v.VisitComprehension(b) }

func (b *ComprehensionBody) WithoutAnswerKey() Body {
	cp := *b
	cp.SubQuestions = make([]SubQuestion, len(b.SubQuestions))
	for i, sq := range b.SubQuestions {
		sq.CorrectOption = nil
		cp.SubQuestions[i] = sq
	}
	return &cp
}

func (b *ComprehensionBody) Validate() error {
	if len(b.SubQuestions) == 0 {
		return errors.New("comprehension: at least one sub-question required")
	}
	seen := map[string]bool{}
	for _, sq := range b.SubQuestions {
		if sq.ID == "" {
			return errors.New("comprehension: sub-question id required")
		}
		if seen[sq.ID] {
			return fmt.Errorf("comprehension: duplicate sub-question id %q", sq.ID)
		}
		seen[sq.ID] = true
		if sq.CorrectOption != nil && (*sq.CorrectOption < 0 || *sq.CorrectOption >= len(sq.Options)) {
			return fmt.Errorf("comprehension: sub-question %q correct option out of range", sq.ID)
		}
	}
	return nil
}

// ComprehensionAnswer maps sub-question ID -> selected option index.
type ComprehensionAnswer map[string]int

// questionJSON is the flat wire shape: a "type" discriminator plus the union
// of all variant fields.
type questionJSON struct {
	Type  QuestionType `json:"type"`
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Image string       `json:"image,omitempty"`

	Items      []string `json:"items,omitempty"`
	Categories []string `json:"categories,omitempty"`

	Text    string   `json:"text,omitempty"`
	Blanks  []Blank  `json:"blanks,omitempty"`
	Options []string `json:"options,omitempty"`

	Passage      string        `json:"passage,omitempty"`
	SubQuestions []SubQuestion `json:"subQuestions,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	if q.Body == nil {
		return nil, fmt.Errorf("question %q has no body", q.ID)
	}
	out := questionJSON{Type: q.Body.Type(), ID: q.ID, Title: q.Title, Image: q.Image}
	switch b := q.Body.(type) {
	case *CategorizeBody:
		out.Items, out.Categories = b.Items, b.Categories
	case *ClozeBody:
		out.Text, out.Blanks, out.Options = b.Text, b.Blanks, b.Options
	case *ComprehensionBody:
		out.Passage, out.SubQuestions = b.Passage, b.SubQuestions
	default:
		return nil, fmt.Errorf("question %q: unknown body %T", q.ID, q.Body)
	}
	return json.Marshal(out)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	q.ID, q.Title, q.Image = in.ID, in.Title, in.Image
	switch in.Type {
	case TypeCategorize:
		q.Body = &CategorizeBody{Items: in.Items, Categories: in.Categories}
	case TypeCloze:
		q.Body = &ClozeBody{Text: in.Text, Blanks: in.Blanks, Options: in.Options}
	case TypeComprehension:
		q.Body = &ComprehensionBody{Passage: in.Passage, SubQuestions: in.SubQuestions}
	default:
		return fmt.Errorf("unknown question type %q", in.Type)
	}
	return nil
}

// Validate checks a form's questions for structural soundness: globally
// unique question IDs plus each variant's own rules.
func (f *Form) Validate() error {
	seen := map[string]bool{}
	for _, q := range f.Questions {
		if q.ID == "" {
			return errors.New("question id required")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if q.Body == nil {
			return fmt.Errorf("question %q has no body", q.ID)
		}
		if err := q.Body.Validate(); err != nil {
			return fmt.Errorf("question %q: %w", q.ID, err)
		}
	}
	return nil
}

// WithoutAnswerKeys returns a copy of the form safe to serve to respondents.
func (f Form) WithoutAnswerKeys() Form {
	qs := make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		q.Body = q.Body.WithoutAnswerKey()
		qs[i] = q
	}
	f.Questions = qs
	return f
}
