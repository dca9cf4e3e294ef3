package commands

import (
	"context"
	"log/slog"
	"time"

	"authkit/ports"
)

// publishGrantChange emits a grant-change event after a committed
// transaction. Best-effort: a publish failure is logged and never
// surfaces to the caller.
func publishGrantChange(
	ctx context.Context,
	logger *slog.Logger,
	events ports.EventPublisher,
	ids ports.IDGenerator,
	clock ports.Clock,
	event ports.GrantChangedEvent,
) {
	if events == nil {
		return
	}
	if event.EventID == "" && ids != nil {
		if id, err := ids.NewID(ctx); err == nil {
			event.EventID = id
		}
	}
	if event.OccurredAt.IsZero() {
		if clock != nil {
			event.OccurredAt = clock.Now()
		} else {
			event.OccurredAt = time.Now().UTC()
		}
	}
	if err := events.PublishGrantChanged(ctx, event); err != nil {
		logger.Warn("grant change publish failed",
			"event", "authz_event_publish_failed",
			"layer", "command",
			"type", event.Type,
			"subject", event.Subject,
			"error", err.Error(),
		)
	}
}
