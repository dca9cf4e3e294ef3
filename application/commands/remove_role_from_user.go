package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

type RemoveRoleFromUserInput struct {
	RoleID string
	UserID string
}

type RemoveRoleFromUserOutput struct {
	Success bool
}

// RemoveRoleFromUser revokes a role grant from the user's subject.
type RemoveRoleFromUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c RemoveRoleFromUser) Execute(ctx context.Context, input RemoveRoleFromUserInput) (RemoveRoleFromUserOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	role, found, err := c.Store.Roles().FindByID(ctx, input.RoleID)
	if err != nil {
		return RemoveRoleFromUserOutput{}, err
	}
	if !found {
		return RemoveRoleFromUserOutput{}, domainerrors.ErrRoleNotFound
	}

	_, subject, err := application.ResolveSubject(ctx, c.Store.Users(), input.UserID)
	if err != nil {
		return RemoveRoleFromUserOutput{}, err
	}

	perms, found, err := c.Store.Permissions().FindBySubject(ctx, subject)
	if err != nil {
		return RemoveRoleFromUserOutput{}, err
	}
	if !found || !perms.HasRole(role.ID) {
		logger.Error("role not attached on user",
			"event", "authz_remove_role_from_user_not_attached",
			"layer", "command",
			"user_id", input.UserID,
			"role_id", input.RoleID,
		)
		return RemoveRoleFromUserOutput{}, domainerrors.ErrRoleNotAttachedOnUser
	}

	if err := (transactions.RemoveRoleFromUser{
		Store:  c.Store,
		Logger: c.Logger,
	}).Execute(ctx, transactions.RemoveRoleFromUserInput{
		Role:        role,
		Subject:     subject,
		Permissions: perms,
	}); err != nil {
		return RemoveRoleFromUserOutput{}, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:     ports.EventRoleDetached,
		Subject:  subject,
		RoleName: role.Name,
	})
	return RemoveRoleFromUserOutput{Success: true}, nil
}
