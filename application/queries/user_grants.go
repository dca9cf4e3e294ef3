package queries

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/ports"
)

// RolesForUser lists the roles attached to the user's subject.
type RolesForUser struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (q RolesForUser) Execute(ctx context.Context, userID string) ([]entities.Role, error) {
	logger := application.ResolveLogger(q.Logger)

	_, subject, err := application.ResolveSubject(ctx, q.Store.Users(), userID)
	if err != nil {
		logger.Error("subject resolution failed",
			"event", "authz_roles_for_user_subject_failed",
			"layer", "query",
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, err
	}

	perms, found, err := q.Store.Permissions().FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !found {
		return []entities.Role{}, nil
	}
	return perms.Roles, nil
}

// PoliciesForUser lists the policies attached directly to the user's
// subject, independent of any role.
type PoliciesForUser struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (q PoliciesForUser) Execute(ctx context.Context, userID string) ([]entities.Policy, error) {
	logger := application.ResolveLogger(q.Logger)

	_, subject, err := application.ResolveSubject(ctx, q.Store.Users(), userID)
	if err != nil {
		logger.Error("subject resolution failed",
			"event", "authz_policies_for_user_subject_failed",
			"layer", "query",
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, err
	}

	perms, found, err := q.Store.Permissions().FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !found {
		return []entities.Policy{}, nil
	}
	return perms.Policies, nil
}

// ListUsers is a passthrough over the host-owned user projection.
type ListUsers struct {
	Store ports.Store
}

func (q ListUsers) Execute(ctx context.Context) ([]entities.User, error) {
	return q.Store.Users().List(ctx)
}
