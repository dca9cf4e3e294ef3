package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	domainerrors "authkit/domain/errors"
	"authkit/domain/services"
	"authkit/ports"
)

type RemovePolicyFromUserInput struct {
	UserID   string
	PolicyID string
}

type RemovePolicyFromUserOutput struct {
	Success bool
}

// RemovePolicyFromUser revokes a direct policy grant from the user's
// subject. Copies of the permission held via roles survive.
type RemovePolicyFromUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c RemovePolicyFromUser) Execute(ctx context.Context, input RemovePolicyFromUserInput) (RemovePolicyFromUserOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	_, subject, err := application.ResolveSubject(ctx, c.Store.Users(), input.UserID)
	if err != nil {
		return RemovePolicyFromUserOutput{}, err
	}

	policy, found, err := c.Store.Policies().FindByID(ctx, input.PolicyID)
	if err != nil {
		return RemovePolicyFromUserOutput{}, err
	}
	if !found {
		return RemovePolicyFromUserOutput{}, domainerrors.ErrPolicyNotFound
	}

	perms, found, err := c.Store.Permissions().FindBySubject(ctx, subject)
	if err != nil {
		return RemovePolicyFromUserOutput{}, err
	}
	if !found || !perms.HasPolicy(policy.ID) {
		logger.Error("policy not attached on user",
			"event", "authz_remove_policy_from_user_not_attached",
			"layer", "command",
			"user_id", input.UserID,
			"policy_id", input.PolicyID,
		)
		return RemovePolicyFromUserOutput{}, domainerrors.ErrPolicyNotAttachedUser
	}

	if err := (transactions.RemovePolicyFromUser{
		Store:  c.Store,
		Logger: c.Logger,
	}).Execute(ctx, transactions.RemovePolicyFromUserInput{
		Policy:      policy,
		Subject:     subject,
		Permissions: perms,
	}); err != nil {
		return RemovePolicyFromUserOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:         ports.EventPolicyDetached,
		Subject:      subject,
		PolicyMapKey: services.PolicyKey(policy),
	})
	return RemovePolicyFromUserOutput{Success: true}, nil
}
