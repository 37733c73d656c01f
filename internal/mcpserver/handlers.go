package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/workflow"
)

type toolQuestion struct {
	ID         int                    `json:"id"`
	Body       string                 `json:"body"`
	SelectType string                 `json:"select_type"`
	Options    []assessment.RawOption `json:"options"`
}

type listedTest struct {
	ID            int      `json:"id"`
	TestName      string   `json:"test_name"`
	Description   string   `json:"description,omitempty"`
	QuestionCount int      `json:"question_count"`
	Authors       []string `json:"authors,omitempty"`
	Completed     bool     `json:"completed"`
}

type shownQuestion struct {
	Number     int      `json:"number"`
	Body       string   `json:"body"`
	Options    []string `json:"options"`
	SelectType string   `json:"select_type"`
}

func errorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError("error: " + msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// parseQuestions decodes the questions argument into drafts.
func parseQuestions(request mcp.CallToolRequest) ([]assessment.DraftQuestion, error) {
	raw, ok := request.GetArguments()["questions"]
	if !ok {
		return nil, fmt.Errorf("questions is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid questions: %w", err)
	}
	var items []toolQuestion
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("questions must be an array of objects: %w", err)
	}

	drafts := make([]assessment.DraftQuestion, len(items))
	for i, item := range items {
		id := item.ID
		if id <= 0 {
			id = i + 1
		}
		opts := make([]assessment.DraftOption, len(item.Options))
		for j, o := range item.Options {
			optID, _ := o.ID.PositiveInt()
			opts[j] = assessment.DraftOption{ID: optID, Body: assessment.GetOptionValue(o)}
		}
		drafts[i] = assessment.DraftQuestion{
			ID:         id,
			Body:       item.Body,
			Options:    opts,
			SelectType: assessment.ParseSelectType(item.SelectType),
		}
	}
	return drafts, nil
}

func (s *Server) handleTestList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.page.Refresh(ctx); err != nil {
		return errorResult(errors.UserMessage(err, workflow.MsgListFailed)), nil
	}

	entries := s.page.List().Entries()
	out := make([]listedTest, len(entries))
	for i, e := range entries {
		out[i] = listedTest{
			ID:            e.ID,
			TestName:      e.TestName,
			Description:   e.Description,
			QuestionCount: e.QuestionCount,
			Authors:       e.AuthorsName,
			Completed:     e.IsCompleted,
		}
	}
	return jsonResult(out)
}

func (s *Server) handleTestQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testID, err := request.RequireInt("test_id")
	if err != nil {
		return errorResult(err.Error()), nil
	}

	raw, err := errors.RecoverWithResult(func() (assessment.RawQuestions, error) {
		return s.page.Client().FetchQuestions(ctx, testID)
	})
	if err != nil {
		return errorResult(errors.UserMessage(err, workflow.MsgLoadQuestionsFailed)), nil
	}

	questions := assessment.AttemptQuestionsFromRaw(raw)
	out := make([]shownQuestion, len(questions))
	for i, q := range questions {
		out[i] = shownQuestion{
			Number:     q.Number,
			Body:       q.Body,
			Options:    q.Options,
			SelectType: string(q.SelectType),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleTestValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	drafts, err := parseQuestions(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	questions, err := assessment.NormalizeQuestionsForSave(drafts)
	if err != nil {
		return errorResult(errors.UserMessage(err, "")), nil
	}
	return jsonResult(questions)
}

func (s *Server) handleTestCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	drafts, err := parseQuestions(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	add := s.page.Add
	if err := add.OpenAdd(); err != nil {
		return errorResult(err.Error()), nil
	}
	defer add.Close()

	if err := add.LoadDraft(workflow.Draft{
		TestName:    request.GetString("test_name", ""),
		Description: request.GetString("description", ""),
		Authors:     request.GetString("authors", ""),
		Questions:   drafts,
	}); err != nil {
		return errorResult(err.Error()), nil
	}

	if err := add.Save(ctx); err != nil {
		return errorResult(errors.UserMessage(err, workflow.MsgCreateFailed)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created test %q with %d question(s)", request.GetString("test_name", ""), len(drafts))), nil
}

func (s *Server) handleTestDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testID, err := request.RequireInt("test_id")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if err := s.page.DeleteTest(ctx, testID); err != nil {
		if errors.Is(err, errors.ErrBusy) {
			return errorResult(fmt.Sprintf("test %d is already being deleted", testID)), nil
		}
		return errorResult(errors.UserMessage(err, workflow.MsgDeleteFailed)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted test %d", testID)), nil
}
