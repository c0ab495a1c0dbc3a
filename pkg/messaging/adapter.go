package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc handles one decoded envelope.
type HandlerFunc func(ctx context.Context, msg Message) error

// Dispatcher subscribes to a broker channel and routes envelopes to the
// handler registered for their Type. Unrouted types are dropped.
type Dispatcher struct {
	broker   Broker
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	onError  func(msg Message, err error)
}

func NewDispatcher(broker Broker, onError func(msg Message, err error)) *Dispatcher {
	if onError == nil {
		onError = func(Message, error) {}
	}
	return &Dispatcher{
		broker:   broker,
		handlers: make(map[string]HandlerFunc),
		onError:  onError,
	}
}

func (d *Dispatcher) Handle(eventType string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = fn
}

// Run consumes channel until ctx is cancelled or the subscription closes.
func (d *Dispatcher) Run(ctx context.Context, channel string) error {
	msgChan, err := d.broker.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-msgChan:
			if !ok {
				return nil
			}
			d.dispatch(ctx, raw)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.onError(msg, fmt.Errorf("failed to decode message: %w", err))
		return
	}

	d.mu.RLock()
	fn, ok := d.handlers[msg.Type]
	d.mu.RUnlock()
	if !ok {
		return
	}

	if err := fn(ctx, msg); err != nil {
		// Log error but continue processing
		d.onError(msg, err)
	}
}
