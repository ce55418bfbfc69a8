package scriptresult

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResults(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect map[string]any
	}{
		{name: "empty", input: "", expect: nil},
		{name: "whitespace", input: " \n", expect: nil},
		{name: "null document", input: "null", expect: nil},
		{name: "comment only", input: "# nothing to report", expect: nil},
		{
			name:   "status only",
			input:  "status: passed",
			expect: map[string]any{"status": "passed"},
		},
		{
			name:   "null status",
			input:  "status: null\nextra: 1",
			expect: map[string]any{"status": nil, "extra": 1},
		},
		{
			name:  "results with scalars and lists",
			input: "status: degraded\nresults:\n  speed: 1.5\n  ok: true\n  disks: [sda, sdb]\n  count: 2\n",
			expect: map[string]any{
				"status": "degraded",
				"results": map[string]any{
					"speed": 1.5,
					"ok":    true,
					"disks": []any{"sda", "sdb"},
					"count": 2,
				},
			},
		},
		{
			name:   "non string top level keys",
			input:  "1: one\nstatus: failed",
			expect: map[string]any{"1": "one", "status": "failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResults([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestReadResultsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "list document", input: "- a\n- b", message: "YAML must be a dictionary."},
		{name: "scalar document", input: "hello", message: "YAML must be a dictionary."},
		{name: "unknown status", input: "status: broken", message: `status must be "passed", "failed", "degraded", or "timedout".`},
		{name: "non string status", input: "status: 1", message: `status must be "passed", "failed", "degraded", or "timedout".`},
		{name: "results list", input: "results: [a]", message: "results must be a dictionary."},
		{name: "results scalar", input: "results: a", message: "results must be a dictionary."},
		{name: "int key", input: "results:\n  1: a", message: "All keys in the results dictionary must be strings."},
		{name: "nested dict value", input: "results:\n  a: {b: c}", message: "All values in the results dictionary must be a string, float, int, or bool."},
		{name: "null value", input: "results:\n  a: null", message: "All values in the results dictionary must be a string, float, int, or bool."},
		{name: "nested list value", input: "results:\n  a: [[b]]", message: "All values in the results dictionary must be a string, float, int, or bool."},
		{name: "two documents", input: "status: passed\n---\nstatus: bogus", message: "expected a single YAML document."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadResults([]byte(tt.input))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestReadResultsMalformedYAML(t *testing.T) {
	_, err := ReadResults([]byte("status: [passed"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Message)
}
