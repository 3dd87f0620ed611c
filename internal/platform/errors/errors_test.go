package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	apperrors "stillpoint/internal/platform/errors"
)

func TestSentinelsAreDistinctAndWrappable(t *testing.T) {
	t.Parallel()
	sentinels := []error{
		apperrors.ErrInvalidInput,
		apperrors.ErrNoActiveSession,
		apperrors.ErrSessionInProgress,
		apperrors.ErrNoFinishedSession,
		apperrors.ErrEngineClosed,
	}
	for i, target := range sentinels {
		wrapped := fmt.Errorf("engine: %w", target)
		for j, other := range sentinels {
			if got := errors.Is(wrapped, other); got != (i == j) {
				t.Fatalf("errors.Is(%v, %v) = %v", wrapped, other, got)
			}
		}
	}
}
