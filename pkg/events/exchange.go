// Package events implements the in-process event exchange that services publish to
package events

import (
	"context"
	"slices"
	"sync"

	"github.com/amimof/metal/pkg/logger"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

// Forwarder publishes events outside of the process
type Forwarder interface {
	Forward(context.Context, *eventsv1.Event) error
}

type NewExchangeOption func(*Exchange)

func WithLogger(l logger.Logger) NewExchangeOption {
	return func(e *Exchange) {
		e.logger = l
	}
}

// WithForwarder adds forwarders that receive every published event
func WithForwarder(f ...Forwarder) NewExchangeOption {
	return func(e *Exchange) {
		e.forwarders = append(e.forwarders, f...)
	}
}

type Exchange struct {
	topics             map[eventsv1.EventType][]chan *eventsv1.Event
	persistentHandlers map[eventsv1.EventType][]HandlerFunc
	fireOnceHandlers   map[eventsv1.EventType][]HandlerFunc
	forwarders         []Forwarder
	mu                 sync.Mutex
	logger             logger.Logger
}

// AddForwarder adds a forwarder to this Exchange
func (e *Exchange) AddForwarder(f Forwarder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forwarders = append(e.forwarders, f)
}

// On registers a handler func for a certain event type
func (e *Exchange) On(t eventsv1.EventType, f HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persistentHandlers[t] = append(e.persistentHandlers[t], f)
}

// Once attaches a handler to the specified event type. The handler func is only executed once
func (e *Exchange) Once(t eventsv1.EventType, f HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fireOnceHandlers[t] = append(e.fireOnceHandlers[t], f)
}

// Subscribe returns a channel receiving events of the given types. No types means every type.
func (e *Exchange) Subscribe(ctx context.Context, t ...eventsv1.EventType) <-chan *eventsv1.Event {
	if len(t) == 0 {
		t = eventsv1.EventTypes()
	}
	ch := make(chan *eventsv1.Event, 10)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, evType := range t {
		e.topics[evType] = append(e.topics[evType], ch)
	}
	return ch
}

// Unsubscribe removes ch from every topic and closes it
func (e *Exchange) Unsubscribe(ctx context.Context, ch <-chan *eventsv1.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var found chan *eventsv1.Event
	for t, subs := range e.topics {
		for i, sub := range subs {
			if sub == ch {
				found = sub
				e.topics[t] = slices.Delete(subs, i, i+1)
				break
			}
		}
		if len(e.topics[t]) == 0 {
			delete(e.topics, t)
		}
	}
	if found != nil {
		close(found)
	}
}

// Publish runs the handlers registered for t, then notifies subscribers and forwarders.
// Handler errors are logged and the first one is returned once every handler has run.
func (e *Exchange) Publish(ctx context.Context, t eventsv1.EventType, ev *eventsv1.Event) error {
	e.mu.Lock()
	handlers := slices.Clone(e.persistentHandlers[t])
	once := e.fireOnceHandlers[t]
	delete(e.fireOnceHandlers, t)
	forwarders := slices.Clone(e.forwarders)
	e.mu.Unlock()

	var firstErr error
	for _, handler := range append(handlers, once...) {
		if err := handler(ctx, ev); err != nil {
			e.logger.Error("error running handler", "error", err, "event", t.String())
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	e.notify(t, ev)

	for _, f := range forwarders {
		if err := f.Forward(ctx, ev); err != nil {
			e.logger.Error("error forwarding event", "error", err, "event", t.String())
		}
	}

	return firstErr
}

// notify sends ev to the subscribers of t. Sends happen under the lock so that
// Unsubscribe cannot close a channel in between.
func (e *Exchange) notify(t eventsv1.EventType, ev *eventsv1.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.topics[t] {
		select {
		case ch <- ev:
		default:
			e.logger.Warn("subscriber is too slow to receive events", "event", t.String())
		}
	}
}

// Close closes every subscriber channel
func (e *Exchange) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	closed := map[chan *eventsv1.Event]bool{}
	for _, subs := range e.topics {
		for _, ch := range subs {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	e.topics = make(map[eventsv1.EventType][]chan *eventsv1.Event)
}

func NewExchange(opts ...NewExchangeOption) *Exchange {
	e := &Exchange{
		topics:             make(map[eventsv1.EventType][]chan *eventsv1.Event),
		persistentHandlers: make(map[eventsv1.EventType][]HandlerFunc),
		fireOnceHandlers:   make(map[eventsv1.EventType][]HandlerFunc),
		logger:             logger.ConsoleLogger{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}
