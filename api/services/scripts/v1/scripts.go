// Package v1 defines scripts, script sets and script results, and the
// ScriptService wire contract.
package v1

import (
	"fmt"
	"time"

	"github.com/amimof/metal/api/types/v1"
)

type ScriptType string

const (
	ScriptTypeCommissioning ScriptType = "commissioning"
	ScriptTypeTesting       ScriptType = "testing"
)

// ResultType tells what kind of run a script set records
type ResultType int

const (
	ResultTypeCommissioning ResultType = iota
	ResultTypeInstallation
	ResultTypeTesting
)

func (r ResultType) String() string {
	switch r {
	case ResultTypeCommissioning:
		return "Commissioning"
	case ResultTypeInstallation:
		return "Installation"
	case ResultTypeTesting:
		return "Testing"
	}
	return "Unknown"
}

type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusTimedOut
	StatusAborted
	StatusDegraded
	StatusInstalling
	StatusFailedInstalling
)

var statusNames = [...]string{
	StatusPending:          "Pending",
	StatusRunning:          "Running",
	StatusPassed:           "Passed",
	StatusFailed:           "Failed",
	StatusTimedOut:         "Timed out",
	StatusAborted:          "Aborted",
	StatusDegraded:         "Degraded",
	StatusInstalling:       "Installing dependencies",
	StatusFailedInstalling: "Failed installing dependencies",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

// ScriptVersion is one revision of a script's contents
type ScriptVersion struct {
	ID      int       `json:"id"`
	Data    string    `json:"data,omitempty"`
	Created time.Time `json:"created,omitempty"`
}

type Script struct {
	Meta        *types.Meta      `json:"meta,omitempty"`
	ID          int              `json:"id"`
	ScriptType  ScriptType       `json:"script_type,omitempty"`
	Description string           `json:"description,omitempty"`
	Versions    []*ScriptVersion `json:"versions,omitempty"`
}

func (s *Script) GetMeta() *types.Meta {
	if s == nil {
		return nil
	}
	return s.Meta
}

func (s *Script) GetName() string {
	return s.GetMeta().GetName()
}

// Current returns the latest version of the script
func (s *Script) Current() *ScriptVersion {
	if s == nil || len(s.Versions) == 0 {
		return nil
	}
	return s.Versions[len(s.Versions)-1]
}

// PreviousVersions returns every version of the script, newest first
func (s *Script) PreviousVersions() []*ScriptVersion {
	res := make([]*ScriptVersion, 0, len(s.Versions))
	for i := len(s.Versions) - 1; i >= 0; i-- {
		res = append(res, s.Versions[i])
	}
	return res
}

// ScriptSet groups the results of one commissioning, installation or testing run
type ScriptSet struct {
	Meta       *types.Meta `json:"meta,omitempty"`
	NodeID     string      `json:"node_id"`
	ResultType ResultType  `json:"result_type"`
}

func (s *ScriptSet) GetMeta() *types.Meta {
	if s == nil {
		return nil
	}
	return s.Meta
}

func (s *ScriptSet) ID() string {
	return s.GetMeta().GetName()
}

type ScriptResult struct {
	Meta            *types.Meta    `json:"meta,omitempty"`
	ScriptSetID     string         `json:"script_set_id"`
	ScriptID        int            `json:"script_id,omitempty"`
	ScriptName      string         `json:"script_name,omitempty"`
	ScriptVersionID *int           `json:"script_version_id,omitempty"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	Status          Status         `json:"status"`
	ExitStatus      *int           `json:"exit_status,omitempty"`
	Output          []byte         `json:"output,omitempty"`
	Stdout          []byte         `json:"stdout,omitempty"`
	Stderr          []byte         `json:"stderr,omitempty"`
	Result          []byte         `json:"result,omitempty"`
	Started         *time.Time     `json:"started,omitempty"`
	Ended           *time.Time     `json:"ended,omitempty"`
}

func (r *ScriptResult) GetMeta() *types.Meta {
	if r == nil {
		return nil
	}
	return r.Meta
}

func (r *ScriptResult) ID() string {
	return r.GetMeta().GetName()
}

// Name is the script name, kept on the result so it outlives the script
func (r *ScriptResult) Name() string {
	if r.ScriptName != "" {
		return r.ScriptName
	}
	return "Unknown"
}

func (r *ScriptResult) StatusName() string {
	return r.Status.String()
}

// Runtime is the wall time the script ran for, truncated to whole seconds.
// Empty until both start and end are known.
func (r *ScriptResult) Runtime() string {
	if r.Started == nil || r.Ended == nil {
		return ""
	}
	return FormatRuntime(r.Ended.Sub(*r.Started))
}

// FormatRuntime renders d as H:MM:SS, prefixed with a day count past 24 hours
func FormatRuntime(d time.Duration) string {
	d = d.Truncate(time.Second)
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	clock := fmt.Sprintf("%d:%02d:%02d", h, m, s)
	switch days {
	case 0:
		return sign + clock
	case 1:
		return fmt.Sprintf("%s1 day, %s", sign, clock)
	default:
		return fmt.Sprintf("%s%d days, %s", sign, days, clock)
	}
}
