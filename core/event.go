package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Event is a message exchanged with connected kiosk displays over the
// display channel.
type Event struct {
	// Display is the id of the display connection that dispatched the
	// event. Zero for server-originated events.
	Display int             `json:"-"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Display: %d, Type: %s, Payload.Size: %d}", e.Display, e.Type, len(e.Payload))
}

func EncodeEvent(w io.Writer, e *Event) error {
	if err := json.NewEncoder(w).Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}

func DecodeEvent(r io.Reader, e *Event) error {
	if err := json.NewDecoder(r).Decode(e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}

type EventTransport interface {
	Send(event *Event)
	Receive() <-chan *Event
}

type EventHandler func(context.Context, *Event) error

// EventRouter dispatches events received from displays to registered
// handlers and broadcasts server events back out through the transport.
type EventRouter struct {
	listeners map[string]EventHandler
	ctx       context.Context
	transport EventTransport
	logger    *slog.Logger
}

func NewEventRouter(ctx context.Context, logger *slog.Logger, transport EventTransport) *EventRouter {
	return &EventRouter{
		listeners: make(map[string]EventHandler),
		ctx:       ctx,
		transport: transport,
		logger:    logger,
	}
}

// Listen starts dispatching received events until the router's context
// is cancelled. Handlers must be registered before Listen is called.
func (em *EventRouter) Listen() {
	go func() {
		for {
			select {
			case e := <-em.transport.Receive():
				em.logger.Debug(fmt.Sprintf("received: %v", e))
				handler, ok := em.listeners[e.Type]
				if !ok {
					continue
				}
				go func() {
					if err := handler(em.ctx, e); err != nil {
						em.logger.Error(fmt.Sprintf("%s handler: %s", e.Type, err))
					}
				}()
			case <-em.ctx.Done():
				return
			}
		}
	}()
}

func (em *EventRouter) On(eventName string, handler EventHandler) {
	em.listeners[eventName] = handler
}

// Emit broadcasts an event to every connected display.
func (em *EventRouter) Emit(t string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	em.transport.Send(&Event{
		Type:    t,
		Payload: b,
	})
	return nil
}
