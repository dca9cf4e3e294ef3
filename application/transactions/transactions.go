// Package transactions holds the atomic consistency units that keep the
// normalized grant graph (Role.Policies, UserPermissions.Roles/Policies)
// and the denormalized (subject, policy-map-key) index in sync. Every
// transaction runs its whole body inside Store.InTransaction: all steps
// commit or all roll back. Domain errors raised inside propagate verbatim;
// unexpected store failures are wrapped as internal.
package transactions

import (
	"context"
	"fmt"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// DefaultDenormChunkSize bounds batched denorm inserts so a single role
// fan-out cannot exceed backend payload limits.
const DefaultDenormChunkSize = 1000

func wrapInternal(err error) error {
	if err == nil || domainerrors.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domainerrors.ErrInternal, err)
}

func chunkRows(rows []entities.UserPolicyDenorm, size int) [][]entities.UserPolicyDenorm {
	if size <= 0 {
		size = DefaultDenormChunkSize
	}
	var chunks [][]entities.UserPolicyDenorm
	for len(rows) > size {
		chunks = append(chunks, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		chunks = append(chunks, rows)
	}
	return chunks
}

func insertChunked(ctx context.Context, tx ports.Store, rows []entities.UserPolicyDenorm, size int) error {
	for _, chunk := range chunkRows(rows, size) {
		if err := tx.Denorm().Insert(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// PolicySpec carries the resource/action pair used to create a policy
// inside a transaction when no existing policy was resolved beforehand.
type PolicySpec struct {
	Resource string
	Action   string
}

// resolveOrCreatePolicy returns the supplied policy, or creates one from
// spec when the caller resolved none. Creation happens inside the
// transaction so a rollback also discards the policy.
func resolveOrCreatePolicy(
	ctx context.Context,
	tx ports.Store,
	ids ports.IDGenerator,
	policy *entities.Policy,
	spec PolicySpec,
) (entities.Policy, error) {
	if policy != nil {
		return *policy, nil
	}
	id, err := ids.NewID(ctx)
	if err != nil {
		return entities.Policy{}, err
	}
	return tx.Policies().Create(ctx, entities.Policy{
		ID:       id,
		Resource: spec.Resource,
		Action:   spec.Action,
	})
}

// loadOrCreatePermissions fetches the subject's grant record or creates an
// empty one. The subject is the uniqueness key, so the read happens inside
// the transaction right before any insert.
func loadOrCreatePermissions(
	ctx context.Context,
	tx ports.Store,
	ids ports.IDGenerator,
	subject string,
) (entities.UserPermissions, error) {
	perms, found, err := tx.Permissions().FindBySubject(ctx, subject)
	if err != nil {
		return entities.UserPermissions{}, err
	}
	if found {
		return perms, nil
	}
	id, err := ids.NewID(ctx)
	if err != nil {
		return entities.UserPermissions{}, err
	}
	return tx.Permissions().Create(ctx, entities.UserPermissions{
		ID:      id,
		Subject: subject,
	})
}

func denormRow(ctx context.Context, ids ports.IDGenerator, subject, policyMapKey string, roleKey *string) (entities.UserPolicyDenorm, error) {
	id, err := ids.NewID(ctx)
	if err != nil {
		return entities.UserPolicyDenorm{}, err
	}
	return entities.UserPolicyDenorm{
		ID:           id,
		Subject:      subject,
		PolicyMapKey: policyMapKey,
		RoleKey:      roleKey,
	}, nil
}
