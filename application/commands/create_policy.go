package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// CreatePolicy inserts a new (resource, action) policy. The pair is
// unique.
type CreatePolicy struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (c CreatePolicy) Execute(ctx context.Context, resource, action string) (entities.Policy, error) {
	logger := application.ResolveLogger(c.Logger)

	logger.Info("creating policy",
		"event", "authz_create_policy",
		"layer", "command",
		"resource", resource,
		"action", action,
	)

	_, found, err := c.Store.Policies().FindByResourceAction(ctx, resource, action)
	if err != nil {
		return entities.Policy{}, err
	}
	if found {
		return entities.Policy{}, domainerrors.ErrPolicyExists
	}

	id, err := c.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Policy{}, err
	}
	return c.Store.Policies().Create(ctx, entities.Policy{
		ID:       id,
		Resource: resource,
		Action:   action,
	})
}

// CreateOrFindPolicy returns the existing policy for the pair or creates
// it. Creation failures propagate; there is no silent nil-policy path.
type CreateOrFindPolicy struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (c CreateOrFindPolicy) Execute(ctx context.Context, resource, action string) (entities.Policy, error) {
	policy, found, err := c.Store.Policies().FindByResourceAction(ctx, resource, action)
	if err != nil {
		return entities.Policy{}, err
	}
	if found {
		return policy, nil
	}
	return CreatePolicy(c).Execute(ctx, resource, action)
}
