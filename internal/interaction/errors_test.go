// internal/interaction/errors_test.go
package interaction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"visibility timeout", fmt.Errorf("element #a not visible: %w", ErrWaitTimeout), true},
		{"stale node", errors.New("node with given id was detached"), true},
		{"covered element", errors.New("element is covered by another node"), true},
		{"value mismatch", fmt.Errorf("verify: %w", ErrValueMismatch), true},
		{"missing element", fmt.Errorf("resolving: %w", ErrElementNotFound), false},
		{"missing node text", errors.New("could not find node for selector"), false},
		{"target closed", fmt.Errorf("click: %w", ErrTargetClosed), false},
		{"target closed text", errors.New("Target closed"), false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("click: %w", context.Canceled), false},
		{"session closed", errors.New("session is closed: context canceled"), false},
		{"dns failure", errors.New("page load: net::ERR_NAME_NOT_RESOLVED"), false},
		{"refused", errors.New("dial tcp: connection refused"), false},
		{"invalid selector", errors.New(`invalid selector "div[["`), false},
		{"invalid selector sentinel", fmt.Errorf("%w: empty query", ErrInvalidSelector), false},
		{"negative index", fmt.Errorf("%w: negative index -1 for query %q", ErrInvalidSelector, "#x"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Recoverable(tc.err))
		})
	}
}

func TestOpErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("resolving: %w", ErrElementNotFound)
	err := &OpError{Op: "click", Element: "#submit", Err: cause}

	assert.Equal(t, "click on #submit: resolving: element not found", err.Error())
	assert.ErrorIs(t, err, ErrElementNotFound)

	bare := &OpError{Op: "wait", Err: ErrWaitTimeout}
	assert.Equal(t, "wait: wait condition timed out", bare.Error())
}
