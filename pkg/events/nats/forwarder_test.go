package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

type fakeConn struct {
	msgs []*nats.Msg
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func TestForwarder(t *testing.T) {
	conn := &fakeConn{}
	f, err := NewForwarder(conn)
	require.NoError(t, err)

	ev := &eventsv1.Event{Type: eventsv1.EventType_TagPopulated, Description: "gpu"}
	require.NoError(t, f.Forward(context.Background(), ev))

	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "metal.events.TAG_POPULATED", conn.msgs[0].Subject)

	var got eventsv1.Event
	require.NoError(t, json.Unmarshal(conn.msgs[0].Data, &got))
	assert.Equal(t, "gpu", got.Description)
}

func TestForwarderSubjectPrefix(t *testing.T) {
	f, err := NewForwarder(&fakeConn{}, WithSubjectPrefix("lab"))
	require.NoError(t, err)
	assert.Equal(t, "lab.ZONE_UPDATED", f.Subject(eventsv1.EventType_ZoneUpdated))
}

func TestNewForwarderNilConn(t *testing.T) {
	_, err := NewForwarder(nil)
	assert.Error(t, err)
}
