package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfDefaultsToInternal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected KindInternal, got %s", got)
	}
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	inner := NotFound("dump %s", "abc")
	wrapped := fmt.Errorf("context: %w", inner)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("expected KindNotFound, got %s", got)
	}
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected Is to report true through fmt.Errorf wrapping")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindTransient, "write dump", cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected Unwrap to return cause")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty message")
	}
}
