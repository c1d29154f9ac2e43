package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event is any post-commit event in the system.
type Event interface {
	Name() string
}

// Listener handles a single event.
type Listener func(ctx context.Context, event Event) error

// Bus dispatches post-commit side effects. Listeners run synchronously, in
// subscription order; a listener error is logged and the remaining listeners
// still run. A side-effect failure never propagates back to the caller, so
// it can never roll back the primary mutation.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener for an event name.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish invokes all listeners for the event in order.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	listeners := b.listeners[event.Name()]
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := l(ctx, event); err != nil {
			b.logger.Error("event listener failed",
				zap.String("event", event.Name()),
				zap.Error(err),
			)
		}
	}
}
