package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/ports"
)

type RemoveRoleInput struct {
	Role entities.Role
}

type RemoveRoleOutput struct {
	UsersAffected int64
}

// RemoveRole deletes a role entirely: the association leaves every
// subject's normalized record, all (roleKey) index rows disappear, and the
// role record itself is deleted last.
type RemoveRole struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (t RemoveRole) Execute(ctx context.Context, input RemoveRoleInput) (RemoveRoleOutput, error) {
	logger := application.ResolveLogger(t.Logger)

	var out RemoveRoleOutput
	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		affected, err := tx.Permissions().RemoveRoleFromAll(ctx, input.Role.ID)
		if err != nil {
			logger.Error("stripping role associations failed inside remove-role",
				"event", "authz_tx_remove_role_strip_failed",
				"layer", "transaction",
				"role", input.Role.Name,
				"error", err.Error(),
			)
			return err
		}

		if err := tx.Denorm().Delete(ctx, ports.DenormFilter{RoleKey: input.Role.Name}); err != nil {
			return err
		}

		if err := tx.Roles().Delete(ctx, input.Role.ID); err != nil {
			return err
		}

		out = RemoveRoleOutput{UsersAffected: affected}
		return nil
	})
	if err != nil {
		return RemoveRoleOutput{}, wrapInternal(err)
	}
	return out, nil
}
