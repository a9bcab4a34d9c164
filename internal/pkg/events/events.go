package events

import (
	"context"
	"log/slog"
	"sync"
)

// Topics emitted by the attendance engine. Consumers live outside this
// process; delivery is fire-and-forget.
const (
	TopicDailyReport          = "daily-report"
	TopicTargetUpdateRequired = "user.target.update.required"
	TopicMetricsUpdateNeeded  = "user.metrics.update.required"
	TopicSendEmail            = "send.email"
	TopicSendNotification     = "send.notification"
)

// Publisher pushes an event onto the bus. Errors are never returned to
// the caller; a failed publish must not fail the business operation.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload map[string]interface{})
}

// Handler receives events for a subscribed topic.
type Handler func(ctx context.Context, payload map[string]interface{})

// Bus is an in-process publisher with optional local subscribers. Every
// publish is also logged so the event stream stays observable even when
// nothing is subscribed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish dispatches the payload to all subscribers asynchronously.
func (b *Bus) Publish(ctx context.Context, topic string, payload map[string]interface{}) {
	slog.Debug("Event published", "topic", topic)

	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Event handler panicked", "topic", topic, "panic", r)
				}
			}()
			h(ctx, payload)
		}(h)
	}
}
