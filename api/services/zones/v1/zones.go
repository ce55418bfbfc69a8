// Package v1 defines the zone resource and the ZoneService wire contract
package v1

import "github.com/amimof/metal/api/types/v1"

// DefaultZoneName is the zone nodes land in when none is given
const DefaultZoneName = "default"

// Zone is an administrative grouping of nodes, e.g. a rack, a network or a
// data centre.
type Zone struct {
	Meta        *types.Meta `json:"meta,omitempty"`
	Description string      `json:"description,omitempty"`
}

func (z *Zone) GetMeta() *types.Meta {
	if z == nil {
		return nil
	}
	return z.Meta
}

func (z *Zone) GetName() string {
	return z.GetMeta().GetName()
}

func (z *Zone) IsDefault() bool {
	return z.GetName() == DefaultZoneName
}
