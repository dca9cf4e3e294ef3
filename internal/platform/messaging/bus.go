package messaging

import (
	"context"
	"log/slog"
	"sync"

	"authkit/ports"
)

// Bus is an in-process publish/subscribe channel for grant change
// notifications. Host applications subscribe to invalidate caches or fan
// out to an external broker.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan ports.GrantChangedEvent
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Publish(ctx context.Context, event ports.GrantChangedEvent) error {
	b.mu.RLock()
	subs := append([]chan ports.GrantChangedEvent(nil), b.subscribers...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("dropping event for slow subscriber",
					"event", "grant_bus_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"event_id", event.EventID,
					"event_type", event.Type,
				)
			}
		}
	}

	if b.logger != nil {
		b.logger.Info("event published",
			"event", "grant_bus_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"event_id", event.EventID,
			"event_type", event.Type,
		)
	}
	return nil
}

// Subscribe registers handler for every future grant change. The handler
// runs on a dedicated goroutine until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, handler func(context.Context, ports.GrantChangedEvent) error) {
	ch := make(chan ports.GrantChangedEvent, 128)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil && b.logger != nil {
					b.logger.Error("subscriber handler failed",
						"event", "grant_bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"event_id", event.EventID,
						"event_type", event.Type,
						"error", err.Error(),
					)
				}
			}
		}
	}()
}

func (b *Bus) removeSubscriber(target chan ports.GrantChangedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subscribers) == 0 {
		return
	}
	filtered := make([]chan ports.GrantChangedEvent, 0, len(b.subscribers))
	for _, item := range b.subscribers {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers = filtered
}
