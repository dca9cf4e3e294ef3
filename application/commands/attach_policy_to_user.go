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

type AttachPolicyToUserInput struct {
	UserID string
	Policy PolicyRef
}

type AttachPolicyToUserOutput struct {
	Permissions entities.UserPermissions
}

// AttachPolicyToUser grants a policy directly to the user's subject.
// A second direct grant of the same (subject, policy-map-key) is refused;
// the same permission held via a role does not count as a conflict.
type AttachPolicyToUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c AttachPolicyToUser) Execute(ctx context.Context, input AttachPolicyToUserInput) (AttachPolicyToUserOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	_, subject, err := application.ResolveSubject(ctx, c.Store.Users(), input.UserID)
	if err != nil {
		return AttachPolicyToUserOutput{}, err
	}

	policy, err := resolvePolicy(ctx, c.Store.Policies(), input.Policy)
	if err != nil {
		return AttachPolicyToUserOutput{}, err
	}

	key := ""
	if policy != nil {
		key = services.PolicyKey(*policy)
	} else {
		key = services.PolicyMapKey(input.Policy.Resource, input.Policy.Action)
	}

	existing, err := c.Store.Denorm().Count(ctx, ports.DenormFilter{
		Subject:      subject,
		PolicyMapKey: key,
		DirectOnly:   true,
	})
	if err != nil {
		return AttachPolicyToUserOutput{}, err
	}
	if existing > 0 {
		logger.Error("policy already attached on user",
			"event", "authz_attach_policy_to_user_duplicate",
			"layer", "command",
			"user_id", input.UserID,
			"policy_map_key", key,
		)
		return AttachPolicyToUserOutput{}, domainerrors.ErrPolicyAlreadyOnUser
	}

	out, err := transactions.AddPolicyToUser{
		Store:       c.Store,
		IDGenerator: c.IDGenerator,
		Logger:      c.Logger,
	}.Execute(ctx, transactions.AddPolicyToUserInput{
		Subject: subject,
		Policy:  policy,
		PolicySpec: transactions.PolicySpec{
			Resource: input.Policy.Resource,
			Action:   input.Policy.Action,
		},
	})
	if err != nil {
		return AttachPolicyToUserOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:         ports.EventPolicyAttached,
		Subject:      subject,
		PolicyMapKey: services.PolicyKey(out.Policy),
	})

	return AttachPolicyToUserOutput{Permissions: out.Permissions}, nil
}
