package assessment

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON value that may arrive as a number or a numeric string.
// Anything else decodes as absent rather than failing the payload.
type Number struct {
	value float64
	set   bool
}

// NumberOf returns a present Number.
func NumberOf(v float64) Number {
	return Number{value: v, set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		*n = NumberOf(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			*n = NumberOf(f)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.finite() {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

func (n Number) finite() bool {
	return n.set && !math.IsNaN(n.value) && !math.IsInf(n.value, 0)
}

// Int returns the truncated value when the number is present and finite.
func (n Number) Int() (int, bool) {
	if !n.finite() {
		return 0, false
	}
	return int(n.value), true
}

// PositiveInt returns the value when it is a finite integer greater than zero.
func (n Number) PositiveInt() (int, bool) {
	if !n.finite() || n.value <= 0 || n.value != math.Trunc(n.value) {
		return 0, false
	}
	return int(n.value), true
}

// Text is a JSON string field that decodes non-strings as empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Flag is a JSON boolean that may arrive as true/false, 0/1 or "true"/"false".
// Anything else decodes as false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t == 1
	case string:
		*f = Flag(strings.EqualFold(strings.TrimSpace(t), "true") || strings.TrimSpace(t) == "1")
	}
	return nil
}

// RawOption is an answer option as sent by the server: either a plain
// string or an object carrying body, text or title.
type RawOption struct {
	ID    Number
	Body  string
	Text  string
	Title string

	plain   string
	isPlain bool
}

// StringOption returns a RawOption for a plain string.
func StringOption(s string) RawOption {
	return RawOption{plain: s, isPlain: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *RawOption) UnmarshalJSON(data []byte) error {
	*o = RawOption{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*o = StringOption(s)
		}
	case '{':
		var obj struct {
			ID    Number `json:"id"`
			Body  Text   `json:"body"`
			Text  Text   `json:"text"`
			Title Text   `json:"title"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			o.ID = obj.ID
			o.Body = string(obj.Body)
			o.Text = string(obj.Text)
			o.Title = string(obj.Title)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o RawOption) MarshalJSON() ([]byte, error) {
	if o.isPlain {
		return json.Marshal(o.plain)
	}
	obj := map[string]any{}
	if o.ID.set {
		obj["id"] = o.ID
	}
	if o.Body != "" {
		obj["body"] = o.Body
	}
	if o.Text != "" {
		obj["text"] = o.Text
	}
	if o.Title != "" {
		obj["title"] = o.Title
	}
	return json.Marshal(obj)
}

// RawOptions is a list of options; a non-array value decodes as nil.
type RawOptions []RawOption

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawOptions) UnmarshalJSON(data []byte) error {
	*r = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil
	}
	out := make(RawOptions, len(items))
	for i, item := range items {
		_ = out[i].UnmarshalJSON(item)
	}
	*r = out
	return nil
}

// RawQuestion is a question as sent by the server.
type RawQuestion struct {
	ID             Number     `json:"id"`
	Number         Number     `json:"number"`
	QuestionNumber Number     `json:"questionNumber"`
	QuestionBody   Text       `json:"questionBody"`
	AnswerOptions  RawOptions `json:"answerOptions"`
	SelectType     Text       `json:"selectType"`
}

// RawQuestions is a list of questions; a non-array value decodes as nil and
// a malformed element decodes as an empty question so numbering fallbacks
// stay aligned with positions.
type RawQuestions []RawQuestion

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawQuestions) UnmarshalJSON(data []byte) error {
	*r = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil
	}
	out := make(RawQuestions, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &out[i]); err != nil {
			out[i] = RawQuestion{}
		}
	}
	*r = out
	return nil
}

// Strings is a list of strings; non-array values decode as nil and
// non-string elements are skipped.
type Strings []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strings) UnmarshalJSON(data []byte) error {
	*s = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil
	}
	out := make(Strings, 0, len(items))
	for _, item := range items {
		var v string
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	*s = out
	return nil
}
