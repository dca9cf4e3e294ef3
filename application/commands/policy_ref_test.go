package commands

import (
	"context"
	"errors"
	"testing"

	"authkit/adapters/memory"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
)

func TestResolvePolicyRequiresSomeIdentifier(t *testing.T) {
	store := memory.NewStore()
	_, err := resolvePolicy(context.Background(), store.Policies(), PolicyRef{})
	if !errors.Is(err, domainerrors.ErrInsufficientPolicyData) {
		t.Fatalf("expected insufficient policy data, got %v", err)
	}
}

func TestResolvePolicyUnknownIDFails(t *testing.T) {
	store := memory.NewStore()
	_, err := resolvePolicy(context.Background(), store.Policies(), PolicyRef{PolicyID: "missing"})
	if !errors.Is(err, domainerrors.ErrPolicyNotFound) {
		t.Fatalf("expected policy not found, got %v", err)
	}
}

func TestResolvePolicyUnmatchedPairFallsThrough(t *testing.T) {
	store := memory.NewStore()
	policy, err := resolvePolicy(context.Background(), store.Policies(), PolicyRef{Resource: "doc", Action: "edit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy != nil {
		t.Fatalf("expected nil policy, got %+v", policy)
	}
}

func TestResolvePolicyConflictingIdentifiers(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first, err := store.Policies().Create(ctx, entities.Policy{ID: "pol_1", Resource: "doc", Action: "edit"})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}
	second, err := store.Policies().Create(ctx, entities.Policy{ID: "pol_2", Resource: "doc", Action: "view"})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	_, err = resolvePolicy(ctx, store.Policies(), PolicyRef{
		PolicyID: first.ID,
		Resource: second.Resource,
		Action:   second.Action,
	})
	if !errors.Is(err, domainerrors.ErrConflictingPolicyData) {
		t.Fatalf("expected conflicting policy data, got %v", err)
	}

	// Agreeing identifiers resolve normally.
	resolved, err := resolvePolicy(ctx, store.Policies(), PolicyRef{
		PolicyID: first.ID,
		Resource: first.Resource,
		Action:   first.Action,
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved == nil || resolved.ID != first.ID {
		t.Fatalf("unexpected resolution %+v", resolved)
	}
}
