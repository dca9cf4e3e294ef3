package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/domain/services"
	"authkit/ports"
)

type RemovePolicyFromRoleInput struct {
	Role   entities.Role
	Policy entities.Policy
}

type RemovePolicyFromRoleOutput struct {
	Role entities.Role
}

// RemovePolicyFromRole detaches a policy from a role and deletes the
// matching (roleKey, policyMapKey) index rows, revoking this grant-via-role
// for every subject at once.
type RemovePolicyFromRole struct {
	Store  ports.Store
	Logger *slog.Logger
}

func (t RemovePolicyFromRole) Execute(ctx context.Context, input RemovePolicyFromRoleInput) (RemovePolicyFromRoleOutput, error) {
	logger := application.ResolveLogger(t.Logger)

	var out RemovePolicyFromRoleOutput
	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		role := input.Role
		role.Policies = role.WithoutPolicy(input.Policy.ID)
		role, err := tx.Roles().Save(ctx, role)
		if err != nil {
			logger.Error("role save failed inside remove-policy-from-role",
				"event", "authz_tx_remove_policy_from_role_save_failed",
				"layer", "transaction",
				"role", input.Role.Name,
				"error", err.Error(),
			)
			return err
		}

		if err := tx.Denorm().Delete(ctx, ports.DenormFilter{
			RoleKey:      input.Role.Name,
			PolicyMapKey: services.PolicyKey(input.Policy),
		}); err != nil {
			return err
		}

		out = RemovePolicyFromRoleOutput{Role: role}
		return nil
	})
	if err != nil {
		return RemovePolicyFromRoleOutput{}, wrapInternal(err)
	}
	return out, nil
}
