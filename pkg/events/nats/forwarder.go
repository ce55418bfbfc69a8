// Package nats forwards exchange events to a NATS server
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

// DefaultSubjectPrefix is prepended to the event type to form the subject
const DefaultSubjectPrefix = "metal.events"

// Conn is the subset of *nats.Conn the forwarder needs
type Conn interface {
	PublishMsg(*nats.Msg) error
}

type NewForwarderOption func(*Forwarder)

func WithSubjectPrefix(prefix string) NewForwarderOption {
	return func(f *Forwarder) {
		f.prefix = prefix
	}
}

type Forwarder struct {
	conn   Conn
	prefix string
}

// Subject returns the subject events of type t are published on
func (f *Forwarder) Subject(t eventsv1.EventType) string {
	return fmt.Sprintf("%s.%s", f.prefix, t.String())
}

// Forward publishes ev as JSON with the trace context in the message headers
func (f *Forwarder) Forward(ctx context.Context, ev *eventsv1.Event) error {
	subject := f.Subject(ev.GetType())

	tracer := otel.Tracer("nats.forwarder")
	ctx, span := tracer.Start(ctx, "NATS Publish "+subject)
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := f.conn.PublishMsg(msg); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// NewForwarder wraps an established connection
func NewForwarder(conn Conn, opts ...NewForwarderOption) (*Forwarder, error) {
	if conn == nil {
		return nil, errors.New("nats: nil connection")
	}
	if c, ok := conn.(*nats.Conn); ok && !c.IsConnected() {
		return nil, errors.New("nats: connection is not established")
	}
	f := &Forwarder{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}
