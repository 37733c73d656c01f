// Package draftfile stores authoring drafts as YAML so tests can be
// written and reviewed in an editor. Options may be written as a plain
// string or as {id, body} when an existing option id must be kept.
package draftfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/workflow"
)

// File is the on-disk draft.
type File struct {
	TestName    string     `yaml:"test_name"`
	Description string     `yaml:"description"`
	Authors     string     `yaml:"authors"`
	Questions   []Question `yaml:"questions"`
}

// Question is one drafted question.
type Question struct {
	ID         int      `yaml:"id,omitempty"`
	Body       string   `yaml:"body"`
	SelectType string   `yaml:"select_type,omitempty"`
	Options    []Option `yaml:"options"`
}

// Option is an answer option. Without an id it is written as a bare string.
type Option struct {
	ID   int
	Body string
}

type optionObject struct {
	ID   int    `yaml:"id,omitempty"`
	Body string `yaml:"body"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Option) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*o = Option{Body: value.Value}
		return nil
	case yaml.MappingNode:
		var obj optionObject
		if err := value.Decode(&obj); err != nil {
			return err
		}
		*o = Option{ID: obj.ID, Body: obj.Body}
		return nil
	default:
		return fmt.Errorf("line %d: option must be a string or a mapping with id and body", value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (o Option) MarshalYAML() (any, error) {
	if o.ID <= 0 {
		return o.Body, nil
	}
	return optionObject{ID: o.ID, Body: o.Body}, nil
}

// FromDraft converts a workflow draft.
func FromDraft(d workflow.Draft) File {
	f := File{
		TestName:    d.TestName,
		Description: d.Description,
		Authors:     d.Authors,
		Questions:   make([]Question, len(d.Questions)),
	}
	for i, q := range d.Questions {
		opts := make([]Option, len(q.Options))
		for j, o := range q.Options {
			opts[j] = Option{ID: o.ID, Body: o.Body}
		}
		f.Questions[i] = Question{
			ID:         q.ID,
			Body:       q.Body,
			SelectType: string(q.SelectType),
			Options:    opts,
		}
	}
	return f
}

// Draft converts the file to a workflow draft. Questions without an id are
// numbered by position.
func (f File) Draft() workflow.Draft {
	d := workflow.Draft{
		TestName:    f.TestName,
		Description: f.Description,
		Authors:     f.Authors,
		Questions:   make([]assessment.DraftQuestion, len(f.Questions)),
	}
	for i, q := range f.Questions {
		id := q.ID
		if id <= 0 {
			id = i + 1
		}
		opts := make([]assessment.DraftOption, len(q.Options))
		for j, o := range q.Options {
			opts[j] = assessment.DraftOption{ID: o.ID, Body: o.Body}
		}
		d.Questions[i] = assessment.DraftQuestion{
			ID:         id,
			Body:       q.Body,
			Options:    opts,
			SelectType: assessment.ParseSelectType(q.SelectType),
		}
	}
	return d
}

// Template returns a starter draft.
func Template() File {
	return File{
		TestName:    "Название теста",
		Description: "Краткое описание: что измеряет тест и как интерпретировать результат.",
		Authors:     "Фамилия И. О.",
		Questions: []Question{
			{
				ID:         1,
				Body:       "Как часто вы чувствуете усталость?",
				SelectType: string(assessment.SelectOne),
				Options:    []Option{{Body: "Никогда"}, {Body: "Иногда"}, {Body: "Часто"}},
			},
			{
				ID:         2,
				Body:       "Что помогает вам восстановиться?",
				SelectType: string(assessment.SelectCouple),
				Options:    []Option{{Body: "Сон"}, {Body: "Спорт"}, {Body: "Общение"}},
			},
		},
	}
}

// Encode renders f as YAML.
func Encode(f File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses YAML. Unknown keys are rejected so typos do not silently
// drop content.
func Decode(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to parse draft: %w", err)
	}
	return f, nil
}

// Read loads a draft file.
func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read draft: %w", err)
	}
	return Decode(data)
}

// Write saves f to path, creating parent directories.
func Write(path string, f File) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create draft directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}
