package api

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/psyhelp/testdesk/internal/assessment"
)

// Service is the test service contract consumed by the workflows.
// Every response field may be missing; decoders fall back to zero values.
type Service interface {
	ListTests(ctx context.Context, userID string) ([]TestSummary, error)
	FetchQuestions(ctx context.Context, testID int) (assessment.RawQuestions, error)
	SubmitAttempt(ctx context.Context, req SubmitAttemptRequest) (MessageResponse, error)
	LoadTest(ctx context.Context, testID int) (LoadTestResponse, error)
	UpdateTest(ctx context.Context, req UpdateTestRequest) (UpdateTestResponse, error)
	AddTest(ctx context.Context, req AddTestRequest) (MessageResponse, error)
	DeleteTest(ctx context.Context, testID int) (DeleteTestResponse, error)
}

// UserID is a user identifier that goes over the wire as a number when it
// looks like one.
type UserID string

// MarshalJSON implements json.Marshaler.
func (u UserID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(u))
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// TestSummary is one row of the test list.
type TestSummary struct {
	ID            int
	TestName      string
	Description   string
	QuestionCount int
	AuthorsName   []string
	IsCompleted   bool
}

type testSummaryWire struct {
	ID            assessment.Number  `json:"id"`
	TestName      assessment.Text    `json:"testName"`
	Description   assessment.Text    `json:"description"`
	QuestionCount assessment.Number  `json:"questionCount"`
	AuthorsName   assessment.Strings `json:"authorsName"`
	IsCompleted   assessment.Flag    `json:"isCompleted"`
}

func (w testSummaryWire) toSummary() TestSummary {
	id, _ := w.ID.Int()
	count, _ := w.QuestionCount.Int()
	return TestSummary{
		ID:            id,
		TestName:      string(w.TestName),
		Description:   string(w.Description),
		QuestionCount: count,
		AuthorsName:   []string(w.AuthorsName),
		IsCompleted:   bool(w.IsCompleted),
	}
}

type listTestsResponse struct {
	Tests tolerantList[testSummaryWire] `json:"tests"`
}

type fetchQuestionsRequest struct {
	TestID int `json:"testId"`
}

type fetchQuestionsResponse struct {
	Questions assessment.RawQuestions `json:"questions"`
}

// SubmitAttemptRequest carries one finished attempt. Each answer row is
// [questionNumber, selectedOptionNumbers...].
type SubmitAttemptRequest struct {
	TestID  int     `json:"testId"`
	UserID  UserID  `json:"userId"`
	Answers [][]int `json:"answers"`
}

// MessageResponse is a response that may carry an informational message.
type MessageResponse struct {
	Message assessment.Text `json:"message"`
}

type changeTestRequest struct {
	Action string `json:"action"`
	TestID int    `json:"testId"`
}

// TestFields are the editable test header fields.
type TestFields struct {
	TestName    string             `json:"testName"`
	Description string             `json:"description"`
	AuthorsName assessment.Strings `json:"authorsName"`
}

type testFieldsWire struct {
	TestName    assessment.Text    `json:"testName"`
	Description assessment.Text    `json:"description"`
	AuthorsName assessment.Strings `json:"authorsName"`
}

// LoadTestResponse is the answer to changeTest{action: "load"}.
type LoadTestResponse struct {
	TestID    int
	Test      TestFields
	Questions assessment.RawQuestions
}

type loadTestWire struct {
	TestID    assessment.Number              `json:"testId"`
	Test      tolerantObject[testFieldsWire] `json:"test"`
	Questions assessment.RawQuestions        `json:"questions"`
}

// UpdateTestRequest is changeTest{action: "update"}.
type UpdateTestRequest struct {
	TestID      int                   `json:"testId"`
	TestName    string                `json:"testName"`
	Description string                `json:"description"`
	AuthorsName []string              `json:"authorsName"`
	Questions   []assessment.Question `json:"questions"`
}

type updateTestWire struct {
	Action string `json:"action"`
	UpdateTestRequest
}

// UpdatedTest holds the canonical fields the server returns after an update.
// Present reports whether the server sent a test object at all.
type UpdatedTest struct {
	Present       bool
	ID            int
	TestName      string
	Description   string
	QuestionCount int
	HasCount      bool
}

// UpdateTestResponse is the answer to changeTest{action: "update"}.
type UpdateTestResponse struct {
	Message string
	Test    UpdatedTest
}

type updatedTestWire struct {
	ID            assessment.Number `json:"id"`
	TestName      assessment.Text   `json:"testName"`
	Description   assessment.Text   `json:"description"`
	QuestionCount assessment.Number `json:"questionCount"`
}

type updateTestResponseWire struct {
	Message assessment.Text                 `json:"message"`
	Test    tolerantObject[updatedTestWire] `json:"test"`
}

// AddTestRequest creates a test.
type AddTestRequest struct {
	UserID      UserID                `json:"userId"`
	TestName    string                `json:"testName"`
	Description string                `json:"description"`
	AuthorsName []string              `json:"authorsName"`
	Questions   []assessment.Question `json:"questions"`
}

type deleteTestRequest struct {
	TestID int `json:"testId"`
}

// DeleteTestResponse is the answer to deleteTest.
type DeleteTestResponse struct {
	Status  assessment.Text `json:"status"`
	Message assessment.Text `json:"message"`
}

// Succeeded reports whether the delete went through. A 2xx response
// without a status counts as success.
func (r DeleteTestResponse) Succeeded() bool {
	return r.Status == "" || r.Status == "success"
}
