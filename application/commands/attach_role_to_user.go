package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

type AttachRoleToUserInput struct {
	UserID string
	RoleID string
}

type AttachRoleToUserOutput struct {
	Success bool
}

// AttachRoleToUser grants a role to the user's subject. Empty roles are
// not grantable: a role must carry at least one policy before it can be
// attached.
type AttachRoleToUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	DenormChunk int
	Logger      *slog.Logger
}

func (c AttachRoleToUser) Execute(ctx context.Context, input AttachRoleToUserInput) (AttachRoleToUserOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	logger.Info("attaching role to user",
		"event", "authz_attach_role_to_user",
		"layer", "command",
		"user_id", input.UserID,
		"role_id", input.RoleID,
	)

	_, subject, err := application.ResolveSubject(ctx, c.Store.Users(), input.UserID)
	if err != nil {
		return AttachRoleToUserOutput{}, err
	}

	role, found, err := c.Store.Roles().FindByID(ctx, input.RoleID)
	if err != nil {
		return AttachRoleToUserOutput{}, err
	}
	if !found {
		return AttachRoleToUserOutput{}, domainerrors.ErrRoleNotFound
	}
	if len(role.Policies) == 0 {
		logger.Error("role has no policies",
			"event", "authz_attach_role_to_user_empty_role",
			"layer", "command",
			"role_id", input.RoleID,
		)
		return AttachRoleToUserOutput{}, domainerrors.ErrEmptyRole
	}

	if err := (transactions.AddRoleToUser{
		Store:       c.Store,
		IDGenerator: c.IDGenerator,
		DenormChunk: c.DenormChunk,
		Logger:      c.Logger,
	}).Execute(ctx, transactions.AddRoleToUserInput{
		Role:    role,
		Subject: subject,
	}); err != nil {
		return AttachRoleToUserOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:     ports.EventRoleAttached,
		Subject:  subject,
		RoleName: role.Name,
	})
	return AttachRoleToUserOutput{Success: true}, nil
}
