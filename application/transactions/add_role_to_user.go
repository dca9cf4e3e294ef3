package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/domain/services"
	"authkit/ports"
)

type AddRoleToUserInput struct {
	Role    entities.Role
	Subject string
}

// AddRoleToUser grants a role to a subject: the role is appended to the
// subject's normalized record and one index row per role policy is
// inserted, chunked to respect backend payload limits.
type AddRoleToUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	DenormChunk int
	Logger      *slog.Logger
}

func (t AddRoleToUser) Execute(ctx context.Context, input AddRoleToUserInput) error {
	logger := application.ResolveLogger(t.Logger)

	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		perms, err := loadOrCreatePermissions(ctx, tx, t.IDGenerator, input.Subject)
		if err != nil {
			logger.Error("user permissions load failed inside add-role-to-user",
				"event", "authz_tx_add_role_to_user_load_failed",
				"layer", "transaction",
				"subject", input.Subject,
				"error", err.Error(),
			)
			return err
		}

		if perms.HasRole(input.Role.ID) {
			return domainerrors.ErrRoleAlreadyOnUser
		}
		perms.Roles = append(perms.Roles, input.Role)
		if _, err := tx.Permissions().Save(ctx, perms); err != nil {
			return err
		}

		rows := make([]entities.UserPolicyDenorm, 0, len(input.Role.Policies))
		for _, policy := range input.Role.Policies {
			roleKey := input.Role.Name
			row, err := denormRow(ctx, t.IDGenerator, input.Subject, services.PolicyKey(policy), &roleKey)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return insertChunked(ctx, tx, rows, t.DenormChunk)
	})
	return wrapInternal(err)
}
