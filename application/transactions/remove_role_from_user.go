package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/ports"
)

type RemoveRoleFromUserInput struct {
	Role        entities.Role
	Subject     string
	Permissions entities.UserPermissions
}

// RemoveRoleFromUser revokes a role grant: the role leaves the subject's
// normalized record and every (subject, roleKey) index row disappears,
// regardless of which policy it encoded. Direct policy grants and grants
// via other roles survive.
type RemoveRoleFromUser struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (t RemoveRoleFromUser) Execute(ctx context.Context, input RemoveRoleFromUserInput) error {
	logger := application.ResolveLogger(t.Logger)

	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		perms := input.Permissions
		perms.Roles = perms.WithoutRole(input.Role.ID)
		if _, err := tx.Permissions().Save(ctx, perms); err != nil {
			logger.Error("user permissions save failed inside remove-role-from-user",
				"event", "authz_tx_remove_role_from_user_save_failed",
				"layer", "transaction",
				"subject", input.Subject,
				"role", input.Role.Name,
				"error", err.Error(),
			)
			return err
		}

		return tx.Denorm().Delete(ctx, ports.DenormFilter{
			Subject: input.Subject,
			RoleKey: input.Role.Name,
		})
	})
	return wrapInternal(err)
}
