// Package assessment holds the canonical test model and the pure functions
// that turn loosely shaped server payloads into it.
package assessment

import "strings"

// SelectType tells how many options a question accepts.
type SelectType string

const (
	SelectOne    SelectType = "one"    // exactly one option
	SelectCouple SelectType = "couple" // one or more options
)

// ParseSelectType maps raw input to a SelectType. Anything other than
// "couple" is single-choice.
func ParseSelectType(s string) SelectType {
	if strings.TrimSpace(s) == string(SelectCouple) {
		return SelectCouple
	}
	return SelectOne
}

// IsSingle reports radio-button semantics.
func (s SelectType) IsSingle() bool {
	return s != SelectCouple
}

// Option is a persisted answer option.
type Option struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
}

// Question is a validated question ready to be sent to the server.
type Question struct {
	ID            int        `json:"id"`
	QuestionBody  string     `json:"questionBody"`
	AnswerOptions []Option   `json:"answerOptions"`
	SelectType    SelectType `json:"selectType"`
}

// Test is a test definition.
type Test struct {
	ID          int        `json:"id"`
	TestName    string     `json:"testName"`
	Description string     `json:"description"`
	AuthorsName []string   `json:"authorsName"`
	Questions   []Question `json:"questions"`
}

// DraftOption is an option being edited. ID is zero until the server
// has assigned one.
type DraftOption struct {
	ID   int
	Body string
}

// DraftQuestion is a question being edited.
type DraftQuestion struct {
	ID         int
	Body       string
	Options    []DraftOption
	SelectType SelectType
}

// Clone returns a deep copy so drafts can be handed out as snapshots.
func (q DraftQuestion) Clone() DraftQuestion {
	q.Options = append([]DraftOption(nil), q.Options...)
	return q
}

// BlankQuestion returns the editable baseline for a new question:
// empty text and two empty option slots.
func BlankQuestion(id int) DraftQuestion {
	return DraftQuestion{
		ID:         id,
		Options:    draftOptions(NormalizeAnswerOptions(nil)),
		SelectType: SelectOne,
	}
}

// AttemptQuestion is a question as shown to a test taker.
type AttemptQuestion struct {
	Number     int
	Body       string
	Options    []string
	SelectType SelectType
}

// Key is the selection map key for the question.
func (q AttemptQuestion) Key() string {
	return questionKey(q.Number)
}

func draftOptions(values []string) []DraftOption {
	opts := make([]DraftOption, len(values))
	for i, v := range values {
		opts[i] = DraftOption{Body: v}
	}
	return opts
}
