package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/ports"
)

type RemoveUserInput struct {
	User       entities.User
	Subject    string
	DeleteUser bool
}

// RemoveUser drops every grant for a subject: the normalized record and
// all index rows. When DeleteUser is set the host-owned user record is
// deleted in the same unit.
type RemoveUser struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (t RemoveUser) Execute(ctx context.Context, input RemoveUserInput) error {
	logger := application.ResolveLogger(t.Logger)

	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		if err := tx.Permissions().DeleteBySubject(ctx, input.Subject); err != nil {
			logger.Error("user permissions delete failed inside remove-user",
				"event", "authz_tx_remove_user_perms_failed",
				"layer", "transaction",
				"subject", input.Subject,
				"error", err.Error(),
			)
			return err
		}

		if err := tx.Denorm().Delete(ctx, ports.DenormFilter{Subject: input.Subject}); err != nil {
			return err
		}

		if input.DeleteUser {
			return tx.Users().Delete(ctx, input.User.ID)
		}
		return nil
	})
	return wrapInternal(err)
}
