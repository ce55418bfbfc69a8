package labels

import (
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

// ForNode exposes the queryable fields of a node as labels, merged over
// the node's own metadata labels.
func ForNode(n *nodesv1.Node) Label {
	l := Merge(n.GetMeta().GetLabels())
	l.Set(KeyZone, n.Zone)
	l.Set(KeyHostname, n.Hostname)
	l.Set(KeyDomain, n.Domain)
	l.Set(KeyStatus, n.Status.String())
	l.Set(KeyType, string(n.NodeType))
	for _, tag := range n.Tags {
		l.Set(TagKey(tag), "")
	}
	return l
}
