package apperrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"invalid json", &InvalidJSONError{Cause: errors.New("bad")}, http.StatusBadRequest},
		{"invalid wasm", &InvalidWasmError{Cause: errors.New("bad")}, http.StatusBadRequest},
		{"invalid type", &InvalidTypeError{Position: 0, Expected: "I32"}, http.StatusBadRequest},
		{"length mismatch", &LengthMismatchError{Expected: 2, Found: 1}, http.StatusBadRequest},
		{"compile error", &CompileError{Cause: errors.New("bad")}, http.StatusInternalServerError},
		{"instantiate error", &InstantiateError{Cause: errors.New("bad")}, http.StatusInternalServerError},
		{"execution error", &ExecutionError{Cause: errors.New("bad")}, http.StatusInternalServerError},
		{"channel error", &ChannelError{Op: "x", Cause: errors.New("bad")}, http.StatusInternalServerError},
		{"unclassified", errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestLengthMismatchMessage(t *testing.T) {
	err := &LengthMismatchError{Expected: 2, Found: 3}
	want := "argument count mismatch: expected=2, found=3"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInvalidTypeMessageNamesExpectedTag(t *testing.T) {
	err := &InvalidTypeError{Position: 1, Expected: "I64"}
	if got := err.Error(); got != "argument 1: expected type I64" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &CompileError{Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true (Unwrap must expose Cause)")
	}
}
