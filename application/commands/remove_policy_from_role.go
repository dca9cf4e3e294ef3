package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/domain/services"
	"authkit/ports"
)

type RemovePolicyFromRoleInput struct {
	RoleID string
	Policy PolicyRef
}

type RemovePolicyFromRoleOutput struct {
	Role   entities.Role
	Policy entities.Policy
}

// RemovePolicyFromRole detaches a policy from a role. Removing the last
// policy is refused: a role that has held policies must stay non-empty
// until the role itself is removed.
type RemovePolicyFromRole struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c RemovePolicyFromRole) Execute(ctx context.Context, input RemovePolicyFromRoleInput) (RemovePolicyFromRoleOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	policy, err := resolvePolicy(ctx, c.Store.Policies(), input.Policy)
	if err != nil {
		return RemovePolicyFromRoleOutput{}, err
	}
	if policy == nil {
		return RemovePolicyFromRoleOutput{}, domainerrors.ErrPolicyNotFound
	}

	role, found, err := c.Store.Roles().FindByID(ctx, input.RoleID)
	if err != nil {
		return RemovePolicyFromRoleOutput{}, err
	}
	if !found {
		return RemovePolicyFromRoleOutput{}, domainerrors.ErrRoleNotFound
	}

	if !role.HasPolicy(policy.ID) {
		logger.Error("policy not attached on role",
			"event", "authz_remove_policy_from_role_not_attached",
			"layer", "command",
			"role_id", input.RoleID,
			"policy_id", policy.ID,
		)
		return RemovePolicyFromRoleOutput{}, domainerrors.ErrPolicyNotAttachedRole
	}
	if len(role.Policies) == 1 {
		return RemovePolicyFromRoleOutput{}, domainerrors.ErrRoleCannotBeEmpty
	}

	out, err := transactions.RemovePolicyFromRole{
		Store:  c.Store,
		Logger: c.Logger,
	}.Execute(ctx, transactions.RemovePolicyFromRoleInput{
		Role:   role,
		Policy: *policy,
	})
	if err != nil {
		return RemovePolicyFromRoleOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:         ports.EventRolePolicyRemove,
		RoleName:     role.Name,
		PolicyMapKey: services.PolicyKey(*policy),
	})

	return RemovePolicyFromRoleOutput{Role: out.Role, Policy: *policy}, nil
}
