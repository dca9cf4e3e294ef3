package transactions

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/domain/entities"
	"authkit/domain/services"
	"authkit/ports"
)

type AddPolicyToUserInput struct {
	Subject    string
	Policy     *entities.Policy
	PolicySpec PolicySpec
}

type AddPolicyToUserOutput struct {
	Permissions entities.UserPermissions
	Policy      entities.Policy
}

// AddPolicyToUser grants a policy directly to a subject, independent of
// any role: the policy joins the subject's normalized record and exactly
// one index row with a nil role key is inserted.
type AddPolicyToUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (t AddPolicyToUser) Execute(ctx context.Context, input AddPolicyToUserInput) (AddPolicyToUserOutput, error) {
	logger := application.ResolveLogger(t.Logger)

	var out AddPolicyToUserOutput
	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		perms, err := loadOrCreatePermissions(ctx, tx, t.IDGenerator, input.Subject)
		if err != nil {
			logger.Error("user permissions load failed inside add-policy-to-user",
				"event", "authz_tx_add_policy_to_user_load_failed",
				"layer", "transaction",
				"subject", input.Subject,
				"error", err.Error(),
			)
			return err
		}

		policy, err := resolveOrCreatePolicy(ctx, tx, t.IDGenerator, input.Policy, input.PolicySpec)
		if err != nil {
			return err
		}

		perms.Policies = append(perms.Policies, policy)
		perms, err = tx.Permissions().Save(ctx, perms)
		if err != nil {
			return err
		}

		row, err := denormRow(ctx, t.IDGenerator, input.Subject, services.PolicyKey(policy), nil)
		if err != nil {
			return err
		}
		if err := tx.Denorm().Insert(ctx, []entities.UserPolicyDenorm{row}); err != nil {
			return err
		}

		out = AddPolicyToUserOutput{Permissions: perms, Policy: policy}
		return nil
	})
	if err != nil {
		return AddPolicyToUserOutput{}, wrapInternal(err)
	}
	return out, nil
}
