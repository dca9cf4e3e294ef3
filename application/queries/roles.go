package queries

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// GetRole loads one role with its policy set.
type GetRole struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (q GetRole) Execute(ctx context.Context, roleID string) (entities.Role, error) {
	logger := application.ResolveLogger(q.Logger)

	role, found, err := q.Store.Roles().FindByID(ctx, roleID)
	if err != nil {
		return entities.Role{}, err
	}
	if !found {
		logger.Error("role not found",
			"event", "authz_get_role_not_found",
			"layer", "query",
			"role_id", roleID,
		)
		return entities.Role{}, domainerrors.ErrRoleNotFound
	}
	return role, nil
}

// ListRoles is a plain filtered read.
type ListRoles struct {
	Store ports.Store
}

func (q ListRoles) Execute(ctx context.Context, filter ports.RoleFilter) ([]entities.Role, error) {
	return q.Store.Roles().List(ctx, filter)
}

// ListPolicies is a plain filtered read.
type ListPolicies struct {
	Store ports.Store
}

func (q ListPolicies) Execute(ctx context.Context, filter ports.PolicyFilter) ([]entities.Policy, error) {
	return q.Store.Policies().List(ctx, filter)
}

// PoliciesForRole lists the policies attached to one role.
type PoliciesForRole struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (q PoliciesForRole) Execute(ctx context.Context, roleID string) ([]entities.Policy, error) {
	role, err := GetRole{Store: q.Store, Logger: q.Logger}.Execute(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Policies, nil
}
