package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		input  []any
		expect string
	}{
		{name: "no fields", input: nil, expect: ""},
		{name: "pairs", input: []any{"zone", "default", "count", 3}, expect: " zone=default count=3"},
		{name: "dangling key", input: []any{"zone", "default", "orphan"}, expect: " zone=default orphan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, formatFields(tt.input))
		})
	}
}
