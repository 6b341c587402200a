// internal/diaglog/category_test.go
package diaglog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		message string
		level   string
		want    string
	}{
		{"click #submit", "info", CategoryUserAction},
		{"fill #user", "info", CategoryUserAction},
		{"navigate to /dashboard", "info", CategoryNavigation},
		{"waiting for .modal to be displayed", "info", CategoryTiming},
		{"assert heading contains Welcome", "info", CategoryAssertion},
		{"response from /api/orders took 2s", "info", CategoryAPI},
		{"slow render on checkout page", "info", CategoryPerformance},
		{"something unremarkable happened", "info", CategoryGeneral},
		{"click #submit", "error", CategoryError},
		{"anything at all", "ERROR", CategoryError},
	}
	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.message, tc.level))
		})
	}
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "***MASKED***", MaskValue("my-password-123"))
	assert.Equal(t, "***MASKED***", MaskValue("Bearer secretThing"))
	assert.Equal(t, "***MASKED***", MaskValue("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9abcdef"))
	assert.Equal(t, "alice", MaskValue("alice"))
	assert.Equal(t, "a perfectly ordinary sentence that is quite long indeed", MaskValue("a perfectly ordinary sentence that is quite long indeed"))
}

func TestMaskContextRedactsSensitiveKeysOnly(t *testing.T) {
	in := map[string]string{
		"username":  "alice",
		"password":  "hunter2",
		"api_token": "abc",
	}
	out := MaskContext(in)

	assert.Equal(t, "alice", out["username"])
	assert.Equal(t, "***MASKED***", out["password"])
	assert.Equal(t, "***MASKED***", out["api_token"])
	assert.Equal(t, "hunter2", in["password"], "the input map must not be mutated")
}
