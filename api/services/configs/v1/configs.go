package v1

import (
	"encoding/json"

	"github.com/amimof/metal/api/types/v1"
)

// Config is a named controller setting holding an arbitrary JSON value
type Config struct {
	Meta  *types.Meta     `json:"meta,omitempty"`
	Value json.RawMessage `json:"value"`
	// Default is true when Value comes from the built-in defaults rather than storage
	Default bool `json:"default,omitempty"`
}

func (c *Config) GetMeta() *types.Meta {
	if c == nil {
		return nil
	}
	return c.Meta
}

func (c *Config) GetName() string {
	return c.GetMeta().GetName()
}
