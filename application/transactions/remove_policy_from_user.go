package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/domain/services"
	"authkit/ports"
)

type RemovePolicyFromUserInput struct {
	Policy      entities.Policy
	Subject     string
	Permissions entities.UserPermissions
}

// RemovePolicyFromUser revokes a direct policy grant. Only index rows with
// a nil role key are deleted: copies of the same permission granted
// through a role must survive.
type RemovePolicyFromUser struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (t RemovePolicyFromUser) Execute(ctx context.Context, input RemovePolicyFromUserInput) error {
	logger := application.ResolveLogger(t.Logger)

	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		perms := input.Permissions
		perms.Policies = perms.WithoutPolicy(input.Policy.ID)
		if _, err := tx.Permissions().Save(ctx, perms); err != nil {
			logger.Error("user permissions save failed inside remove-policy-from-user",
				"event", "authz_tx_remove_policy_from_user_save_failed",
				"layer", "transaction",
				"subject", input.Subject,
				"error", err.Error(),
			)
			return err
		}

		return tx.Denorm().Delete(ctx, ports.DenormFilter{
			Subject:      input.Subject,
			PolicyMapKey: services.PolicyKey(input.Policy),
			DirectOnly:   true,
		})
	})
	return wrapInternal(err)
}
