package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

const (
	headerSessionID = "X-Mcp-Session-Id"
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"
)

// TestServerIntegration drives every tool through the HTTP transport
func TestServerIntegration(t *testing.T) {
	ctx := context.Background()
	srv, catalog := setupTestServer(t)

	port, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("failed to stop server: %v", err)
		}
	}()

	// Give server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	serverURL := srv.URL()
	expectedURL := fmt.Sprintf("http://127.0.0.1:%d/mcp", port)
	if serverURL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, serverURL)
	}

	sessionID := initializeSession(t, serverURL)

	t.Run("ListTests", func(t *testing.T) {
		result := callTool(t, serverURL, sessionID, "test-list", nil)

		var listed []map[string]any
		if err := json.Unmarshal([]byte(result), &listed); err != nil {
			t.Fatalf("expected JSON output, got: %s", result)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 tests, got %d", len(listed))
		}
		if listed[0]["test_name"] != "Шкала тревоги" {
			t.Errorf("unexpected first test: %v", listed[0])
		}
	})

	t.Run("Questions", func(t *testing.T) {
		result := callTool(t, serverURL, sessionID, "test-questions", map[string]any{
			"test_id": 1,
		})
		if !contains(result, "Как вы спите?") || !contains(result, "Плохо") {
			t.Errorf("expected normalized questions, got: %s", result)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		result := callTool(t, serverURL, sessionID, "test-validate", map[string]any{
			"questions": []any{
				map[string]any{"body": "Вопрос", "options": []any{"", "Да"}},
			},
		})
		if !contains(result, `"questionBody": "Вопрос"`) {
			t.Errorf("expected canonical question, got: %s", result)
		}

		result = callTool(t, serverURL, sessionID, "test-validate", map[string]any{
			"questions": []any{
				map[string]any{"body": "", "options": []any{"Да"}},
			},
		})
		if !contains(result, "error:") {
			t.Errorf("expected validation error, got: %s", result)
		}
	})

	t.Run("Create", func(t *testing.T) {
		result := callTool(t, serverURL, sessionID, "test-create", map[string]any{
			"test_name":   "Новый тест",
			"description": "Описание",
			"authors":     "Иванов",
			"questions": []any{
				map[string]any{"body": "Вопрос", "options": []any{"Да", "Нет"}, "select_type": "couple"},
			},
		})
		if !contains(result, "Created test") {
			t.Errorf("expected success message, got: %s", result)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		result := callTool(t, serverURL, sessionID, "test-delete", map[string]any{
			"test_id": 2,
		})
		if !contains(result, "Deleted test 2") {
			t.Errorf("expected delete confirmation, got: %s", result)
		}

		catalog.mu.Lock()
		defer catalog.mu.Unlock()
		if len(catalog.deleted) != 1 || catalog.deleted[0] != 2 {
			t.Errorf("expected test 2 to be deleted, got %v", catalog.deleted)
		}
	})
}

// TestServerStartStop tests server lifecycle
func TestServerStartStop(t *testing.T) {
	ctx := context.Background()
	srv, _ := setupTestServer(t)

	port, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	if port == 0 {
		t.Error("expected non-zero port")
	}

	time.Sleep(100 * time.Millisecond)

	// Verify server is listening
	resp, err := http.Post(srv.URL(), "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		t.Fatalf("server not responding: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if err := srv.Stop(); err != nil {
		t.Fatalf("failed to stop server: %v", err)
	}

	// Stop again should be safe
	if err := srv.Stop(); err != nil {
		t.Errorf("second stop returned error: %v", err)
	}
}

// TestServerDoubleStart tests that starting twice returns an error
func TestServerDoubleStart(t *testing.T) {
	ctx := context.Background()
	srv, _ := setupTestServer(t)

	_, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("failed to stop server: %v", err)
		}
	}()

	// Try to start again
	_, err = srv.Start(ctx)
	if err == nil {
		t.Error("expected error when starting server twice, got nil")
	}
	if err != nil && !contains(err.Error(), "already started") {
		t.Errorf("expected 'already started' error, got: %v", err)
	}
}

// initializeSession initializes an MCP session and returns the session ID (or empty for stateless)
func initializeSession(t *testing.T, serverURL string) string {
	t.Helper()

	// Create initialize request
	initReq := map[string]any{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": protocolVersion,
			"clientInfo": map[string]any{
				"name":    "test-client",
				"version": "1.0.0",
			},
		},
	}

	reqBody, err := json.Marshal(initReq)
	if err != nil {
		t.Fatalf("failed to marshal initialize request: %v", err)
	}

	// Make POST request
	resp, err := http.Post(serverURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("failed to make initialize request: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("initialize request failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Get session ID from header (may be empty for stateless servers)
	sessionID := resp.Header.Get(headerSessionID)

	t.Logf("Session ID: %q", sessionID)
	return sessionID
}

// callTool makes an HTTP request to the MCP server to call a tool
func callTool(t *testing.T, serverURL string, sessionID string, toolName string, args map[string]any) string {
	t.Helper()

	// Create JSON-RPC request for tools/call
	jsonrpcReq := map[string]any{
		"jsonrpc": jsonRPCVersion,
		"id":      2,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": args,
		},
	}

	// Marshal to JSON
	reqBody, err := json.Marshal(jsonrpcReq)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	// Make HTTP POST request with session ID header
	req, err := http.NewRequest(http.MethodPost, serverURL, bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerSessionID, sessionID)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("failed to make HTTP request: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	// Read response
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	// Parse JSON-RPC response
	var jsonrpcResp map[string]any
	if err := json.Unmarshal(respBody, &jsonrpcResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body: %s)", err, string(respBody))
	}

	// Extract result
	result, ok := jsonrpcResp["result"].(map[string]any)
	if !ok {
		// Check for error
		if errObj, ok := jsonrpcResp["error"]; ok {
			t.Fatalf("tool call failed: %v", errObj)
		}
		t.Fatalf("unexpected response format: %v", jsonrpcResp)
	}

	// Extract content array
	content, ok := result["content"].([]any)
	if !ok || len(content) == 0 {
		return ""
	}

	// Extract text from first content item
	if contentItem, ok := content[0].(map[string]any); ok {
		if text, ok := contentItem["text"].(string); ok {
			return text
		}
	}

	t.Fatalf("unexpected content type: %T", content[0])
	return ""
}

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}
