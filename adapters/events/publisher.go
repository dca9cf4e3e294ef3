package events

import (
	"context"

	"authkit/internal/platform/messaging"
	"authkit/ports"
)

// BusPublisher forwards grant change events onto the in-process bus.
type BusPublisher struct {
	Bus *messaging.Bus
}

func NewBusPublisher(bus *messaging.Bus) *BusPublisher {
	return &BusPublisher{Bus: bus}
}

func (p *BusPublisher) PublishGrantChanged(ctx context.Context, event ports.GrantChangedEvent) error {
	if p.Bus == nil {
		return nil
	}
	return p.Bus.Publish(ctx, event)
}
