package commands

import (
	"context"
	"strings"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// PolicyRef identifies a policy by id, by (resource, action), or both.
// When both are supplied they must refer to the same policy.
type PolicyRef struct {
	PolicyID string
	Resource string
	Action   string
}

func (r PolicyRef) hasID() bool {
	return strings.TrimSpace(r.PolicyID) != ""
}

func (r PolicyRef) hasPair() bool {
	return strings.TrimSpace(r.Resource) != "" && strings.TrimSpace(r.Action) != ""
}

// resolvePolicy applies the shared resolution rule. A nil result with a
// nil error means nothing matched the (resource, action) pair and the
// caller may fall through to create-or-find semantics; an explicit id
// that does not resolve is always ErrPolicyNotFound.
func resolvePolicy(ctx context.Context, policies ports.PolicyRepository, ref PolicyRef) (*entities.Policy, error) {
	if !ref.hasID() && !ref.hasPair() {
		return nil, domainerrors.ErrInsufficientPolicyData
	}

	var byID, byPair *entities.Policy
	if ref.hasID() {
		policy, found, err := policies.FindByID(ctx, ref.PolicyID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domainerrors.ErrPolicyNotFound
		}
		byID = &policy
	}
	if ref.hasPair() {
		policy, found, err := policies.FindByResourceAction(ctx, ref.Resource, ref.Action)
		if err != nil {
			return nil, err
		}
		if found {
			byPair = &policy
		}
	}

	if byID != nil && byPair != nil && byID.ID != byPair.ID {
		return nil, domainerrors.ErrConflictingPolicyData
	}
	if byID != nil {
		return byID, nil
	}
	return byPair, nil
}
