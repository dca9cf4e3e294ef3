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

// AddPolicyToRoleInput carries either a resolved policy or the spec to
// create one inside the transaction.
type AddPolicyToRoleInput struct {
	Role       entities.Role
	Policy     *entities.Policy
	PolicySpec PolicySpec
}

type AddPolicyToRoleOutput struct {
	Role   entities.Role
	Policy entities.Policy
}

// AddPolicyToRole attaches a policy to a role and fans the new permission
// out to every subject already holding the role, so their index entries
// stay consistent without re-traversing the graph on reads.
type AddPolicyToRole struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	DenormChunk int
	Logger      *slog.Logger
}

func (t AddPolicyToRole) Execute(ctx context.Context, input AddPolicyToRoleInput) (AddPolicyToRoleOutput, error) {
	logger := application.ResolveLogger(t.Logger)

	var out AddPolicyToRoleOutput
	err := t.Store.InTransaction(ctx, func(tx ports.Store) error {
		policy, err := resolveOrCreatePolicy(ctx, tx, t.IDGenerator, input.Policy, input.PolicySpec)
		if err != nil {
			logger.Error("policy creation failed inside add-policy-to-role",
				"event", "authz_tx_add_policy_to_role_create_failed",
				"layer", "transaction",
				"role", input.Role.Name,
				"error", err.Error(),
			)
			return err
		}

		role := input.Role
		if role.HasPolicy(policy.ID) {
			return domainerrors.ErrPolicyAlreadyOnRole
		}
		role.Policies = append(role.Policies, policy)
		role, err = tx.Roles().Save(ctx, role)
		if err != nil {
			return err
		}

		// Subjects already holding this role via some other policy get
		// one new index row each, otherwise the permission added later
		// would be invisible to them.
		subjects, err := tx.Denorm().DistinctSubjectsByRoleKey(ctx, role.Name)
		if err != nil {
			return err
		}
		key := services.PolicyKey(policy)
		rows := make([]entities.UserPolicyDenorm, 0, len(subjects))
		for _, subject := range subjects {
			roleKey := role.Name
			row, err := denormRow(ctx, t.IDGenerator, subject, key, &roleKey)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		if err := insertChunked(ctx, tx, rows, t.DenormChunk); err != nil {
			return err
		}

		out = AddPolicyToRoleOutput{Role: role, Policy: policy}
		return nil
	})
	if err != nil {
		return AddPolicyToRoleOutput{}, wrapInternal(err)
	}
	return out, nil
}
