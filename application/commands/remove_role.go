package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

type RemoveRoleInput struct {
	RoleID string

	// ForceRemove deletes the role even while subjects still hold it,
	// stripping the grant from each of them.
	ForceRemove bool
}

type RemoveRoleOutput struct {
	Role          entities.Role
	UsersAffected int64
}

type RemoveRole struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c RemoveRole) Execute(ctx context.Context, input RemoveRoleInput) (RemoveRoleOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	var out RemoveRoleOutput
	role, found, err := c.Store.Roles().FindByID(ctx, input.RoleID)
	if err != nil {
		return out, err
	}
	if !found {
		return out, domainerrors.ErrRoleNotFound
	}

	holders, err := c.Store.Permissions().CountSubjectsWithRole(ctx, role.ID)
	if err != nil {
		return out, err
	}
	if holders > 0 && !input.ForceRemove {
		logger.Error("role still attached on users",
			"event", "authz_remove_role_attached",
			"layer", "command",
			"role", role.Name,
			"holders", holders,
		)
		return out, domainerrors.ErrRoleAttachedOnUsers
	}

	txOut, err := (transactions.RemoveRole{
		Store:  c.Store,
		Logger: c.Logger,
	}).Execute(ctx, transactions.RemoveRoleInput{Role: role})
	if err != nil {
		return out, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:     ports.EventRoleRemoved,
		RoleName: role.Name,
	})

	out = RemoveRoleOutput{Role: role, UsersAffected: txOut.UsersAffected}
	return out, nil
}
