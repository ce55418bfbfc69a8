// Package v1 defines the tag resource and the TagService wire contract
package v1

import (
	"strings"

	"github.com/amimof/metal/api/types/v1"
)

// Tag is a named label. A defined tag is applied to every node whose
// hardware details match Definition.
type Tag struct {
	Meta       *types.Meta `json:"meta,omitempty"`
	Definition string      `json:"definition,omitempty"`
	Comment    string      `json:"comment,omitempty"`
	KernelOpts *string     `json:"kernel_opts,omitempty"`
}

func (t *Tag) GetMeta() *types.Meta {
	if t == nil {
		return nil
	}
	return t.Meta
}

func (t *Tag) GetName() string {
	return t.GetMeta().GetName()
}

// IsDefined reports whether the tag carries a non-blank definition
func (t *Tag) IsDefined() bool {
	if t == nil {
		return false
	}
	return strings.TrimSpace(t.Definition) != ""
}
