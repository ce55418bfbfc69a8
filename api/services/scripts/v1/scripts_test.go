package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRuntime(t *testing.T) {
	tests := []struct {
		name   string
		d      time.Duration
		expect string
	}{
		{name: "zero", d: 0, expect: "0:00:00"},
		{name: "sub second", d: 900 * time.Millisecond, expect: "0:00:00"},
		{name: "truncated to seconds", d: 59*time.Second + 999*time.Millisecond, expect: "0:00:59"},
		{name: "minutes", d: 3*time.Minute + 7*time.Second, expect: "0:03:07"},
		{name: "hours", d: 23*time.Hour + 59*time.Minute + 59*time.Second, expect: "23:59:59"},
		{name: "one day", d: 24*time.Hour + 5*time.Second, expect: "1 day, 0:00:05"},
		{name: "several days", d: 3*24*time.Hour + 2*time.Hour + 1*time.Minute, expect: "3 days, 2:01:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, FormatRuntime(tt.d))
		})
	}
}

func TestScriptResult_Runtime(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90*time.Second + 400*time.Millisecond)

	tests := []struct {
		name    string
		started *time.Time
		ended   *time.Time
		expect  string
	}{
		{name: "not started", ended: &end, expect: ""},
		{name: "still running", started: &start, expect: ""},
		{name: "neither", expect: ""},
		{name: "finished", started: &start, ended: &end, expect: "0:01:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ScriptResult{Started: tt.started, Ended: tt.ended}
			assert.Equal(t, tt.expect, r.Runtime())
		})
	}
}
