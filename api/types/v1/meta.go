// Package types holds wire types shared by every service
package types

import "time"

// Meta is the common metadata carried by every stored resource
type Meta struct {
	Name     string            `json:"name,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Created  time.Time         `json:"created,omitempty"`
	Updated  time.Time         `json:"updated,omitempty"`
	Revision uint64            `json:"revision,omitempty"`
}

func (m *Meta) GetName() string {
	if m == nil {
		return ""
	}
	return m.Name
}

func (m *Meta) GetLabels() map[string]string {
	if m == nil {
		return nil
	}
	return m.Labels
}

func (m *Meta) GetRevision() uint64 {
	if m == nil {
		return 0
	}
	return m.Revision
}

func (m *Meta) GetCreated() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.Created
}

// Touch bumps the revision and the update timestamp, setting the creation
// timestamp on first use.
func (m *Meta) Touch(now time.Time) {
	if m.Created.IsZero() {
		m.Created = now
	}
	m.Updated = now
	m.Revision++
}
