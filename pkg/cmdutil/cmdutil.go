// Package cmdutil holds helpers shared by the metalctl commands
package cmdutil

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

// FormatScriptStatus colours a script result status for terminal output
func FormatScriptStatus(s scriptsv1.Status) string {
	name := s.String()
	switch s {
	case scriptsv1.StatusPassed:
		return color.GreenString(name)
	case scriptsv1.StatusFailed, scriptsv1.StatusTimedOut, scriptsv1.StatusFailedInstalling:
		return color.RedString(name)
	case scriptsv1.StatusDegraded, scriptsv1.StatusAborted:
		return color.YellowString(name)
	default:
		return color.CyanString(name)
	}
}

func FormatNodeStatus(s nodesv1.Status) string {
	name := s.String()
	switch s {
	case nodesv1.StatusReady, nodesv1.StatusDeployed:
		return color.GreenString(name)
	case nodesv1.StatusBroken, nodesv1.StatusFailedCommissioning, nodesv1.StatusFailedTesting:
		return color.RedString(name)
	case nodesv1.StatusMissing, nodesv1.StatusRetired:
		return color.YellowString(name)
	default:
		return color.CyanString(name)
	}
}

// FormatDuration renders d the way the tables show ages: 42s, 5m, 3h, 2d
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Age is the time since t, or "<unknown>" for the zero time
func Age(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	return FormatDuration(time.Since(t))
}
