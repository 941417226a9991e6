package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeCardNotFound, "card xyz not found")
	if !stderrors.Is(err, New(CodeCardNotFound, "other message")) {
		t.Fatal("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeBossNotFound, "card xyz not found")) {
		t.Fatal("errors with different codes should not match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeNotFound, "load player", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause should be reachable via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeAnswerInvalid, "bad answer")); got != CodeAnswerInvalid {
		t.Fatalf("CodeOf = %q, want %q", got, CodeAnswerInvalid)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain error = %q, want %q", got, CodeUnknown)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeLevelNotFound, http.StatusNotFound},
		{CodeTreeNotFound, http.StatusNotFound},
		{CodeNotFound, http.StatusNotFound},
		{CodeTrajectoryNotStarted, http.StatusConflict},
		{CodeInsufficientEffort, http.StatusConflict},
		{CodeCardNotEquipped, http.StatusConflict},
		{CodeAnswerInvalid, http.StatusBadRequest},
		{CodeContentInvalid, http.StatusBadRequest},
		{CodeUnknown, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}
