package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError wraps a recovered panic with stack trace
type PanicError struct {
	Value      interface{} // Panic value
	StackTrace string      // Stack trace at panic
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.StackTrace)
}

// SafeGo runs fn in a goroutine and always delivers exactly one value to
// results: nil on success, the returned error, or a PanicError.
// results must have room for the value or a reader waiting on it.
func SafeGo(fn func() error, results chan<- error) {
	go func() {
		results <- Recover(fn)
	}()
}

// Recover wraps a function with panic recovery
// Returns any panic as a PanicError
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}

// RecoverWithResult wraps a function with panic recovery and result
func RecoverWithResult[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}
