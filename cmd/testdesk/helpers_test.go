package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// fakeDesk is an in-memory test service.
type fakeDesk struct {
	mu      sync.Mutex
	calls   map[string]int
	added   []map[string]any
	updated []map[string]any
	deleted []int
}

func (f *fakeDesk) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeDesk) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeDesk) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tests", func(w http.ResponseWriter, r *http.Request) {
		f.count("list")
		respond(t, w, http.StatusOK, map[string]any{"tests": []any{
			map[string]any{"id": 1, "testName": "Шкала тревоги", "description": "Оценка уровня тревоги", "questionCount": 2, "authorsName": []string{"Бек"}, "isCompleted": true},
			map[string]any{"id": 2, "testName": "Опросник", "description": "Без авторов", "questionCount": 1},
		}})
	})
	mux.HandleFunc("POST /tests/questions", func(w http.ResponseWriter, r *http.Request) {
		f.count("questions")
		respond(t, w, http.StatusOK, map[string]any{"questions": []any{
			map[string]any{"id": 1, "questionBody": "Как вы спите?", "answerOptions": []any{"Хорошо", map[string]any{"id": 2, "body": "Плохо"}}},
			map[string]any{"id": 2, "questionBody": "Что помогает?", "answerOptions": []any{"Сон", "Спорт"}, "selectType": "couple"},
		}})
	})
	mux.HandleFunc("POST /tests/change", func(w http.ResponseWriter, r *http.Request) {
		body := readBody(t, r)
		switch body["action"] {
		case "load":
			f.count("load")
			respond(t, w, http.StatusOK, map[string]any{
				"testId": body["testId"],
				"test":   map[string]any{"testName": "Шкала тревоги", "description": "Оценка уровня тревоги", "authorsName": []string{"Бек"}},
				"questions": []any{
					map[string]any{"id": 1, "questionBody": "Как вы спите?", "answerOptions": []any{map[string]any{"id": 1, "body": "Хорошо"}, map[string]any{"id": 2, "body": "Плохо"}}, "selectType": "one"},
				},
			})
		case "update":
			f.count("update")
			f.mu.Lock()
			f.updated = append(f.updated, body)
			f.mu.Unlock()
			respond(t, w, http.StatusOK, map[string]any{"message": "ok", "test": map[string]any{"id": body["testId"], "testName": body["testName"], "questionCount": 1}})
		default:
			respond(t, w, http.StatusBadRequest, map[string]any{"message": "unknown action"})
		}
	})
	mux.HandleFunc("POST /tests/add", func(w http.ResponseWriter, r *http.Request) {
		f.count("add")
		body := readBody(t, r)
		f.mu.Lock()
		f.added = append(f.added, body)
		f.mu.Unlock()
		respond(t, w, http.StatusOK, map[string]any{"message": "Тест создан"})
	})
	mux.HandleFunc("POST /tests/delete", func(w http.ResponseWriter, r *http.Request) {
		f.count("delete")
		body := readBody(t, r)
		id := int(body["testId"].(float64))
		if id == 99 {
			respond(t, w, http.StatusOK, map[string]any{"status": "error", "message": "Нет прав на удаление"})
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, id)
		f.mu.Unlock()
		respond(t, w, http.StatusOK, map[string]any{"status": "success"})
	})
	return mux
}

func respond(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// setupCLI isolates config lookup in a temp dir and points the client at
// a fake service. It returns the temp dir.
func setupCLI(t *testing.T, desk *fakeDesk) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	t.Setenv("TESTDESK_USER_ID", "42")
	t.Setenv("TESTDESK_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("TESTDESK_JOURNAL", "false")
	t.Setenv("TESTDESK_LOG_LEVEL", "error")
	t.Setenv("TESTDESK_RATE_LIMIT", "0")
	t.Setenv("EDITOR", "true")

	if desk != nil {
		ts := httptest.NewServer(desk.handler(t))
		t.Cleanup(ts.Close)
		t.Setenv("TESTDESK_SERVER_URL", ts.URL)
	}
	return dir
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores defaults so package-level flag state does not leak
// between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
