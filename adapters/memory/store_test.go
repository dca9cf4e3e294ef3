package memory

import (
	"context"
	"errors"
	"testing"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

func TestRoleCreateRejectsDuplicateName(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Roles().Create(ctx, entities.Role{ID: "role_1", Name: "editor"}); err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	_, err := store.Roles().Create(ctx, entities.Role{ID: "role_2", Name: "editor"})
	if !errors.Is(err, domainerrors.ErrRoleExists) {
		t.Fatalf("expected role exists, got %v", err)
	}
}

func TestRoleSaveIsCompareAndSwap(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	role, err := store.Roles().Create(ctx, entities.Role{ID: "role_1", Name: "editor"})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	role.Policies = []entities.Policy{{ID: "pol_1", Resource: "doc", Action: "edit"}}
	saved, err := store.Roles().Save(ctx, role)
	if err != nil {
		t.Fatalf("save role failed: %v", err)
	}
	if saved.Revision != role.Revision+1 {
		t.Fatalf("revision not bumped: %d", saved.Revision)
	}

	// Saving again with the stale revision must fail.
	_, err = store.Roles().Save(ctx, role)
	if !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestPermissionsCreateEnforcesSubjectUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Permissions().Create(ctx, entities.UserPermissions{ID: "up_1", Subject: "alice"}); err != nil {
		t.Fatalf("create permissions failed: %v", err)
	}
	_, err := store.Permissions().Create(ctx, entities.UserPermissions{ID: "up_2", Subject: "alice"})
	if !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected conflict on duplicate subject, got %v", err)
	}
}

func TestDenormFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	editor := "editor"

	rows := []entities.UserPolicyDenorm{
		{ID: "d1", Subject: "alice", PolicyMapKey: "$doc$edit", RoleKey: &editor},
		{ID: "d2", Subject: "alice", PolicyMapKey: "$doc$edit", RoleKey: nil},
		{ID: "d3", Subject: "bob", PolicyMapKey: "$doc$edit", RoleKey: &editor},
		{ID: "d4", Subject: "bob", PolicyMapKey: "$doc$view", RoleKey: nil},
	}
	if err := store.Denorm().Insert(ctx, rows); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	subjects, err := store.Denorm().DistinctSubjectsByRoleKey(ctx, "editor")
	if err != nil {
		t.Fatalf("distinct subjects failed: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "alice" || subjects[1] != "bob" {
		t.Fatalf("unexpected subjects %v", subjects)
	}

	count, err := store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice", PolicyMapKey: "$doc$edit", DirectOnly: true})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one direct row, got %d", count)
	}

	granted, err := store.Denorm().GrantedKeys(ctx, "bob", []string{"$doc$edit", "$doc$view", "$doc$delete"})
	if err != nil {
		t.Fatalf("granted keys failed: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("unexpected granted keys %v", granted)
	}

	// Deleting the direct rows must leave role-derived rows alone.
	if err := store.Denorm().Delete(ctx, ports.DenormFilter{Subject: "alice", PolicyMapKey: "$doc$edit", DirectOnly: true}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	count, err = store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected role row to survive, got %d rows", count)
	}
}

func TestTransactionRollbackRestoresState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Roles().Create(ctx, entities.Role{ID: "role_1", Name: "editor"}); err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	boom := errors.New("boom")
	err := store.InTransaction(ctx, func(tx ports.Store) error {
		if _, err := tx.Roles().Create(ctx, entities.Role{ID: "role_2", Name: "viewer"}); err != nil {
			return err
		}
		if err := tx.Denorm().Insert(ctx, []entities.UserPolicyDenorm{{ID: "d1", Subject: "alice", PolicyMapKey: "$doc$edit"}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	if _, found, _ := store.Roles().FindByName(ctx, "viewer"); found {
		t.Fatal("rolled back role still visible")
	}
	count, _ := store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice"})
	if count != 0 {
		t.Fatalf("rolled back rows still visible: %d", count)
	}
	if _, found, _ := store.Roles().FindByName(ctx, "editor"); !found {
		t.Fatal("pre-transaction role lost")
	}
}

func TestRemoveRoleFromAll(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	role := entities.Role{ID: "role_1", Name: "editor", Policies: []entities.Policy{{ID: "pol_1", Resource: "doc", Action: "edit"}}}
	if _, err := store.Roles().Create(ctx, role); err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	for i, subject := range []string{"alice", "bob"} {
		perms := entities.UserPermissions{ID: string(rune('a' + i)), Subject: subject, Roles: []entities.Role{role}}
		if _, err := store.Permissions().Create(ctx, perms); err != nil {
			t.Fatalf("create permissions failed: %v", err)
		}
	}

	affected, err := store.Permissions().RemoveRoleFromAll(ctx, "role_1")
	if err != nil {
		t.Fatalf("remove role from all failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 affected, got %d", affected)
	}
	perms, found, err := store.Permissions().FindBySubject(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("find permissions failed: %v", err)
	}
	if perms.HasRole("role_1") {
		t.Fatal("role still attached after removal")
	}
}
