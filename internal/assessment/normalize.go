package assessment

import (
	"strconv"
	"strings"

	errs "github.com/psyhelp/testdesk/internal/errors"
)

// User-facing messages for save-time validation.
const (
	MsgEmptyQuestionBody = "Заполните формулировку каждого вопроса"
	MsgNoAnswerOptions   = "Добавьте варианты ответа для каждого вопроса"
)

// GetOptionValue returns the display text of an option: the plain string,
// or the first non-empty of body, text and title.
func GetOptionValue(o RawOption) string {
	if o.isPlain {
		return o.plain
	}
	for _, v := range []string{o.Body, o.Text, o.Title} {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeAnswerOptions maps raw options to their text. An absent or empty
// list yields two empty slots so a question always has something to edit.
func NormalizeAnswerOptions(raw RawOptions) []string {
	if len(raw) == 0 {
		return []string{"", ""}
	}
	out := make([]string, len(raw))
	for i, o := range raw {
		out[i] = GetOptionValue(o)
	}
	return out
}

// GetQuestionNumber returns the first numeric value among id, number and
// questionNumber, else fallbackIndex+1.
func GetQuestionNumber(q RawQuestion, fallbackIndex int) int {
	for _, n := range []Number{q.ID, q.Number, q.QuestionNumber} {
		if v, ok := n.Int(); ok {
			return v
		}
	}
	return fallbackIndex + 1
}

// NormalizeQuestionsForSave validates drafts in order and converts them to
// the persisted shape. The first invalid question aborts the whole list.
func NormalizeQuestionsForSave(questions []DraftQuestion) ([]Question, error) {
	out := make([]Question, 0, len(questions))
	for i, q := range questions {
		body := strings.TrimSpace(q.Body)
		if body == "" {
			return []Question{}, errs.NewValidationError("questions", MsgEmptyQuestionBody)
		}

		options := normalizeOptionsForSave(q.Options)
		if len(options) == 0 {
			return []Question{}, errs.NewValidationError("questions", MsgNoAnswerOptions)
		}

		id := q.ID
		if id <= 0 {
			id = i + 1
		}
		selectType := q.SelectType
		if strings.TrimSpace(string(selectType)) == "" {
			selectType = SelectOne
		}

		out = append(out, Question{
			ID:            id,
			QuestionBody:  body,
			AnswerOptions: options,
			SelectType:    selectType,
		})
	}
	return out, nil
}

// normalizeOptionsForSave drops blank options and gives every remaining
// option a distinct positive id. Incoming ids are kept; the rest are
// numbered from 1 skipping anything already taken.
func normalizeOptionsForSave(opts []DraftOption) []Option {
	reserved := make(map[int]bool, len(opts))
	for _, o := range opts {
		if o.ID > 0 && strings.TrimSpace(o.Body) != "" {
			reserved[o.ID] = true
		}
	}

	used := make(map[int]bool, len(opts))
	nextID := 1
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		body := strings.TrimSpace(o.Body)
		if body == "" {
			continue
		}

		id := o.ID
		if id <= 0 || used[id] {
			for used[nextID] || reserved[nextID] {
				nextID++
			}
			id = nextID
		}
		used[id] = true
		nextID = max(nextID, id+1)

		out = append(out, Option{ID: id, Body: body})
	}
	return out
}

// DraftFromRaw converts a loaded question into an editable draft, keeping
// option ids that the server sent.
func DraftFromRaw(q RawQuestion, index int) DraftQuestion {
	draft := DraftQuestion{
		ID:         GetQuestionNumber(q, index),
		Body:       string(q.QuestionBody),
		SelectType: ParseSelectType(string(q.SelectType)),
	}
	if len(q.AnswerOptions) == 0 {
		draft.Options = draftOptions(NormalizeAnswerOptions(nil))
		return draft
	}
	draft.Options = make([]DraftOption, len(q.AnswerOptions))
	for i, o := range q.AnswerOptions {
		id, _ := o.ID.PositiveInt()
		draft.Options[i] = DraftOption{ID: id, Body: GetOptionValue(o)}
	}
	return draft
}

// DraftsFromRaw converts a loaded question list.
func DraftsFromRaw(raw RawQuestions) []DraftQuestion {
	out := make([]DraftQuestion, len(raw))
	for i, q := range raw {
		out[i] = DraftFromRaw(q, i)
	}
	return out
}

// AttemptQuestionsFromRaw converts fetched questions for an attempt.
func AttemptQuestionsFromRaw(raw RawQuestions) []AttemptQuestion {
	out := make([]AttemptQuestion, len(raw))
	for i, q := range raw {
		out[i] = AttemptQuestion{
			Number:     GetQuestionNumber(q, i),
			Body:       string(q.QuestionBody),
			Options:    NormalizeAnswerOptions(q.AnswerOptions),
			SelectType: ParseSelectType(string(q.SelectType)),
		}
	}
	return out
}

func questionKey(number int) string {
	return strconv.Itoa(number)
}
