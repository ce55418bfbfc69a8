package labels

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	"github.com/amimof/metal/api/types/v1"
)

func TestSelectorMatches(t *testing.T) {
	l := Label{"app": "backend", "region": "west"}

	tests := []struct {
		name     string
		selector *Selector
		expect   bool
	}{
		{name: "nil selector matches everything", selector: nil, expect: true},
		{name: "match label", selector: NewSelectorFromMap(map[string]string{"app": "backend"}), expect: true},
		{name: "mismatching label", selector: NewSelectorFromMap(map[string]string{"app": "frontend"}), expect: false},
		{name: "in", selector: &Selector{Expressions: []LabelExpression{{Key: "region", Operator: In, Values: []string{"east", "west"}}}}, expect: true},
		{name: "not in", selector: &Selector{Expressions: []LabelExpression{{Key: "region", Operator: NotIn, Values: []string{"west"}}}}, expect: false},
		{name: "exists", selector: &Selector{Expressions: []LabelExpression{{Key: "app", Operator: Exists}}}, expect: true},
		{name: "does not exist", selector: &Selector{Expressions: []LabelExpression{{Key: "gpu", Operator: DoesNotExist}}}, expect: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.selector.Matches(l))
		})
	}
}

func TestParseQuery(t *testing.T) {
	node := &nodesv1.Node{
		Meta:     &types.Meta{Name: "4y3h7n"},
		Hostname: "node-01",
		Domain:   "maas",
		Zone:     "rack-a",
		NodeType: nodesv1.NodeTypeMachine,
		Status:   nodesv1.StatusReady,
		Tags:     []string{"gpu", "virtual"},
	}
	l := ForNode(node)

	tests := []struct {
		name   string
		query  string
		expect bool
	}{
		{name: "empty query", query: "", expect: true},
		{name: "zone", query: "zone=rack-a", expect: true},
		{name: "other zone", query: "zone=default", expect: false},
		{name: "zone and tag", query: "zone=rack-a tags=gpu", expect: true},
		{name: "missing tag", query: "tags=gpu,arm64", expect: false},
		{name: "repeated key is OR", query: "zone=default zone=rack-a", expect: true},
		{name: "status display name", query: "status=Ready", expect: true},
		{name: "type", query: "type=machine", expect: true},
		{name: "percent encoded link", query: "query=zone%3Drack-a", expect: true},
		{name: "full node list link", query: "/nodes/?query=zone%3Drack-a", expect: true},
		{name: "status case insensitive", query: "status=ready", expect: true},
		{name: "status with space, other node", query: `status="Failed commissioning"`, expect: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, sel.Matches(l))
		})
	}
}

func TestParseQueryMultiWordStatus(t *testing.T) {
	for _, status := range []nodesv1.Status{nodesv1.StatusFailedCommissioning, nodesv1.StatusFailedTesting} {
		l := ForNode(&nodesv1.Node{
			Meta:   &types.Meta{Name: "8bx2kq"},
			Zone:   "default",
			Status: status,
		})
		slug := strings.ToLower(strings.ReplaceAll(status.String(), " ", "_"))
		queries := []string{
			"status=" + status.String(),
			"status=" + strings.ReplaceAll(status.String(), " ", "+"),
			"status=" + strings.ReplaceAll(status.String(), " ", "%20"),
			`status="` + status.String() + `"`,
			"status=" + slug,
			"status=" + status.String() + " zone=default",
			"/nodes/?query=" + url.QueryEscape("zone=default status="+slug),
		}
		for _, q := range queries {
			t.Run(q, func(t *testing.T) {
				sel, err := ParseQuery(q)
				require.NoError(t, err)
				assert.True(t, sel.Matches(l))
				assert.False(t, sel.Matches(ForNode(&nodesv1.Node{Zone: "default", Status: nodesv1.StatusReady})))
			})
		}
	}
}

func TestParseQueryInvalid(t *testing.T) {
	for _, q := range []string{"pool=default", "zone", "=default", "zone="} {
		t.Run(q, func(t *testing.T) {
			_, err := ParseQuery(q)
			var invalid *ErrInvalidQuery
			assert.ErrorAs(t, err, &invalid)
		})
	}
}
