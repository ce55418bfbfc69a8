// Package v1 defines the node resource and the NodeService wire contract
package v1

import (
	"encoding/json"
	"slices"

	"github.com/amimof/metal/api/types/v1"
)

type NodeType string

const (
	NodeTypeMachine                 NodeType = "machine"
	NodeTypeDevice                  NodeType = "device"
	NodeTypeRackController          NodeType = "rack-controller"
	NodeTypeRegionController        NodeType = "region-controller"
	NodeTypeRegionAndRackController NodeType = "region-and-rack-controller"
)

// Status is the lifecycle state of a node
type Status int

const (
	StatusNew Status = iota
	StatusCommissioning
	StatusFailedCommissioning
	StatusMissing
	StatusReady
	StatusReserved
	StatusAllocated
	StatusDeploying
	StatusDeployed
	StatusRetired
	StatusBroken
	StatusTesting
	StatusFailedTesting
)

var statusNames = map[Status]string{
	StatusNew:                 "New",
	StatusCommissioning:       "Commissioning",
	StatusFailedCommissioning: "Failed commissioning",
	StatusMissing:             "Missing",
	StatusReady:               "Ready",
	StatusReserved:            "Reserved",
	StatusAllocated:           "Allocated",
	StatusDeploying:           "Deploying",
	StatusDeployed:            "Deployed",
	StatusRetired:             "Retired",
	StatusBroken:              "Broken",
	StatusTesting:             "Testing",
	StatusFailedTesting:       "Failed testing",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "Unknown"
}

// Statuses returns every Status in lifecycle order
func Statuses() []Status {
	out := make([]Status, 0, len(statusNames))
	for s := StatusNew; s <= StatusFailedTesting; s++ {
		out = append(out, s)
	}
	return out
}

// ParseStatus resolves a display name back into a Status
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// HardwareDetails is what commissioning discovered about the node
type HardwareDetails struct {
	LSHW       []byte `json:"lshw,omitempty"`
	Virtuality string `json:"virtuality,omitempty"`
}

type Node struct {
	Meta            *types.Meta      `json:"meta,omitempty"`
	Hostname        string           `json:"hostname,omitempty"`
	Domain          string           `json:"domain,omitempty"`
	Zone            string           `json:"zone,omitempty"`
	NodeType        NodeType         `json:"node_type,omitempty"`
	Status          Status           `json:"status"`
	Tags            []string         `json:"tags,omitempty"`
	HardwareDetails *HardwareDetails `json:"hardware_details,omitempty"`
}

func (n *Node) GetMeta() *types.Meta {
	if n == nil {
		return nil
	}
	return n.Meta
}

// SystemID is the stable identifier of the node
func (n *Node) SystemID() string {
	return n.GetMeta().GetName()
}

func (n *Node) FQDN() string {
	if n.Domain == "" {
		return n.Hostname
	}
	return n.Hostname + "." + n.Domain
}

func (n *Node) IsController() bool {
	switch n.NodeType {
	case NodeTypeRackController, NodeTypeRegionController, NodeTypeRegionAndRackController:
		return true
	}
	return false
}

func (n *Node) HasTag(name string) bool {
	_, found := slices.BinarySearch(n.Tags, name)
	return found
}

// AddTag adds name to the node, keeping Tags sorted. Returns false if already present.
func (n *Node) AddTag(name string) bool {
	i, found := slices.BinarySearch(n.Tags, name)
	if found {
		return false
	}
	n.Tags = slices.Insert(n.Tags, i, name)
	return true
}

// RemoveTag removes name from the node. Returns false if it was not present.
func (n *Node) RemoveTag(name string) bool {
	i, found := slices.BinarySearch(n.Tags, name)
	if !found {
		return false
	}
	n.Tags = slices.Delete(n.Tags, i, i+1)
	return true
}

// NormalizeTags sorts and de-duplicates Tags
func (n *Node) NormalizeTags() {
	slices.Sort(n.Tags)
	n.Tags = slices.Compact(n.Tags)
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	b, _ := json.Marshal(n)
	var c Node
	_ = json.Unmarshal(b, &c)
	return &c
}
