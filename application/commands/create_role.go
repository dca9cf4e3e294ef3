package commands

import (
	"context"
	"log/slog"
	"strings"

	"authkit/application"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// CreateRole inserts a new, initially empty role. Names are unique.
type CreateRole struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (c CreateRole) Execute(ctx context.Context, name string) (entities.Role, error) {
	logger := application.ResolveLogger(c.Logger)
	name = strings.TrimSpace(name)

	logger.Info("creating role",
		"event", "authz_create_role",
		"layer", "command",
		"name", name,
	)

	_, found, err := c.Store.Roles().FindByName(ctx, name)
	if err != nil {
		return entities.Role{}, err
	}
	if found {
		logger.Error("role already exists",
			"event", "authz_create_role_exists",
			"layer", "command",
			"name", name,
		)
		return entities.Role{}, domainerrors.ErrRoleExists
	}

	id, err := c.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Role{}, err
	}
	return c.Store.Roles().Create(ctx, entities.Role{ID: id, Name: name})
}
