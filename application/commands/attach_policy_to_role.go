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

type AttachPolicyToRoleInput struct {
	RoleID string
	Policy PolicyRef
}

type AttachPolicyToRoleOutput struct {
	Role   entities.Role
	Policy entities.Policy
}

// AttachPolicyToRole resolves role and policy, then delegates the write to
// the add-policy-to-role transaction (creating the policy inside the
// transaction when only a resource/action pair was given).
type AttachPolicyToRole struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	DenormChunk int
	Logger      *slog.Logger
}

func (c AttachPolicyToRole) Execute(ctx context.Context, input AttachPolicyToRoleInput) (AttachPolicyToRoleOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	role, found, err := c.Store.Roles().FindByID(ctx, input.RoleID)
	if err != nil {
		return AttachPolicyToRoleOutput{}, err
	}
	if !found {
		logger.Error("role not found",
			"event", "authz_attach_policy_to_role_no_role",
			"layer", "command",
			"role_id", input.RoleID,
		)
		return AttachPolicyToRoleOutput{}, domainerrors.ErrRoleNotFound
	}

	policy, err := resolvePolicy(ctx, c.Store.Policies(), input.Policy)
	if err != nil {
		return AttachPolicyToRoleOutput{}, err
	}

	out, err := transactions.AddPolicyToRole{
		Store:       c.Store,
		IDGenerator: c.IDGenerator,
		DenormChunk: c.DenormChunk,
		Logger:      c.Logger,
	}.Execute(ctx, transactions.AddPolicyToRoleInput{
		Role:   role,
		Policy: policy,
		PolicySpec: transactions.PolicySpec{
			Resource: input.Policy.Resource,
			Action:   input.Policy.Action,
		},
	})
	if err != nil {
		return AttachPolicyToRoleOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:         ports.EventRolePolicyAdded,
		RoleName:     out.Role.Name,
		PolicyMapKey: services.PolicyKey(out.Policy),
	})

	return AttachPolicyToRoleOutput{Role: out.Role, Policy: out.Policy}, nil
}
