package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Run("Error message format", func(t *testing.T) {
		err := NewValidationError("questions", "Заполните формулировку каждого вопроса")
		expected := "validation failed for questions: Заполните формулировку каждого вопроса"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("Is ErrInvalidInput", func(t *testing.T) {
		err := NewValidationError("field", "message")
		if !errors.Is(err, ErrInvalidInput) {
			t.Error("ValidationError should match ErrInvalidInput")
		}
	})
}

func TestServerError(t *testing.T) {
	t.Run("Uses server message", func(t *testing.T) {
		err := &ServerError{Op: "deleteTest", StatusCode: 409, Message: "Тест уже удалён"}
		if err.Error() != "deleteTest: Тест уже удалён" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Falls back to status", func(t *testing.T) {
		err := &ServerError{Op: "addTest", StatusCode: 500}
		if err.Error() != "addTest: request failed with status 500" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Retryable", func(t *testing.T) {
		cases := map[int]bool{400: false, 404: false, 429: true, 500: true, 503: true}
		for code, want := range cases {
			err := &ServerError{StatusCode: code}
			if err.Retryable() != want {
				t.Errorf("status %d: expected retryable=%v", code, want)
			}
		}
	})
}

func TestTransientError(t *testing.T) {
	t.Run("Error message format", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := NewTransientError("connect", inner)
		expected := "transient error in connect: connection refused"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := NewTransientError("connect", inner)
		if errors.Unwrap(err) != inner {
			t.Error("TransientError should unwrap to inner error")
		}
	})

	t.Run("IsTransient", func(t *testing.T) {
		err := NewTransientError("op", errors.New("temp"))
		if !IsTransient(fmt.Errorf("wrapped: %w", err)) {
			t.Error("IsTransient should see through wrapping")
		}
		if IsTransient(errors.New("regular")) {
			t.Error("IsTransient should return false for regular error")
		}
	})
}

func TestPermanentError(t *testing.T) {
	inner := errors.New("bad payload")
	err := NewPermanentError("encode", inner)
	if err.Error() != "permanent error in encode: bad payload" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if errors.Unwrap(err) != inner {
		t.Error("PermanentError should unwrap to inner error")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{name: "nil", err: nil, fallback: "x", want: ""},
		{name: "validation", err: NewValidationError("f", "Заполните поле"), fallback: "x", want: "Заполните поле"},
		{name: "server message", err: fmt.Errorf("wrap: %w", &ServerError{StatusCode: 400, Message: "Нет доступа"}), fallback: "x", want: "Нет доступа"},
		{name: "server without message", err: &ServerError{StatusCode: 500}, fallback: "Не удалось", want: "Не удалось"},
		{name: "transport", err: NewTransientError("get", errors.New("dial tcp")), fallback: "Не удалось", want: "Не удалось"},
		{name: "wrapped transport", err: fmt.Errorf("list: %w", NewTransientError("get", errors.New("connection refused"))), fallback: "Не удалось", want: "Не удалось"},
		{name: "no fallback", err: errors.New("boom"), fallback: "", want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, tt.fallback); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMultiError(t *testing.T) {
	t.Run("Empty MultiError", func(t *testing.T) {
		me := &MultiError{}
		if me.ErrorOrNil() != nil {
			t.Error("Empty MultiError should return nil")
		}
	})

	t.Run("Single error", func(t *testing.T) {
		me := &MultiError{}
		me.Append(errors.New("error 1"))
		if me.Error() != "error 1" {
			t.Errorf("expected %q, got %q", "error 1", me.Error())
		}
	})

	t.Run("Append nil does nothing", func(t *testing.T) {
		me := &MultiError{}
		me.Append(nil)
		if len(me.Errors) != 0 {
			t.Error("Appending nil should not add to errors")
		}
	})
}
