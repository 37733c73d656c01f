package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var questionItems = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{
			"type":        "integer",
			"description": "Question number; defaults to the position",
		},
		"body": map[string]any{
			"type":        "string",
			"description": "Question text",
		},
		"select_type": map[string]any{
			"type":        "string",
			"description": "one (single choice) or couple (multiple choice)",
		},
		"options": map[string]any{
			"type":        "array",
			"description": "Answer options: strings, or objects with id and body",
		},
	},
	"required": []string{"body", "options"},
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("test-list",
			mcp.WithDescription("List the tests visible to the configured user"),
		),
		s.handleTestList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("test-questions",
			mcp.WithDescription("Fetch the questions of a test as a test taker sees them"),
			mcp.WithNumber("test_id", mcp.Required(), mcp.Description("Test id")),
		),
		s.handleTestQuestions,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("test-validate",
			mcp.WithDescription("Validate questions and show them as they would be saved"),
			mcp.WithArray("questions", mcp.Required(), mcp.Items(questionItems)),
		),
		s.handleTestValidate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("test-create",
			mcp.WithDescription("Create a new test"),
			mcp.WithString("test_name", mcp.Required(), mcp.Description("Test name")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Test description")),
			mcp.WithString("authors", mcp.Required(), mcp.Description("Comma-separated author names")),
			mcp.WithArray("questions", mcp.Required(), mcp.Items(questionItems)),
		),
		s.handleTestCreate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("test-delete",
			mcp.WithDescription("Delete a test"),
			mcp.WithNumber("test_id", mcp.Required(), mcp.Description("Test id")),
		),
		s.handleTestDelete,
	)
}
