package event

import (
	"context"
	"errors"
	"log"

	"github.com/saquib-ali-khan/distalgo/service/messaging"
)

// Listener drains a publisher's queue on a background goroutine and hands
// each event to a handler.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewListener creates a listener for the supplied publisher.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Stop terminates the drain loop.
func (l *Listener[T]) Stop() {
	l.cancel()
}

// Start launches the drain loop.
func (l *Listener[T]) Start() {
	go func() {
		for {
			event, err := l.publisher.Consume(l.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrClosed) {
					return
				}
				log.Printf("[event] failed to consume: %v", err)
				continue
			}
			if event == nil {
				continue
			}
			l.handler(event)
		}
	}()
}
