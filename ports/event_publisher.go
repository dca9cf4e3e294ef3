package ports

import (
	"context"
	"time"
)

// Grant-change event types.
const (
	EventRoleAttached     = "authkit.role.attached"
	EventRoleDetached     = "authkit.role.detached"
	EventRoleRemoved      = "authkit.role.removed"
	EventPolicyAttached   = "authkit.policy.attached"
	EventPolicyDetached   = "authkit.policy.detached"
	EventUserRemoved      = "authkit.user.removed"
	EventRolePolicyAdded  = "authkit.role.policy_added"
	EventRolePolicyRemove = "authkit.role.policy_removed"
)

// GrantChangedEvent describes one committed change to the grant graph.
// Subject, RoleName and PolicyMapKey are filled as applicable to the
// event type.
type GrantChangedEvent struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	Subject      string    `json:"subject,omitempty"`
	RoleName     string    `json:"role_name,omitempty"`
	PolicyMapKey string    `json:"policy_map_key,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher emits grant-change events after a consistency transaction
// commits. Publishing is best-effort: failures are logged by callers, not
// propagated.
type EventPublisher interface {
	PublishGrantChanged(ctx context.Context, event GrantChangedEvent) error
}
