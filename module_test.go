package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"authkit/adapters/memory"
	"authkit/application/commands"
	"authkit/application/queries"
	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/domain/services"
	"authkit/ports"
)

func newTestModule(t *testing.T) (*Module, *memory.Store) {
	t.Helper()
	module, store := NewInMemoryModule(nil)
	store.AddUser(entities.User{ID: "user_alice", Subject: "alice@example.com"})
	store.AddUser(entities.User{ID: "user_bob", Subject: "bob@example.com"})
	return module, store
}

func grantedEditorRole(t *testing.T, module *Module) entities.Role {
	t.Helper()
	ctx := context.Background()

	role, err := module.CreateRole.Execute(ctx, "editor")
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	out, err := module.AttachPolicyToRole.Execute(ctx, commands.AttachPolicyToRoleInput{
		RoleID: role.ID,
		Policy: commands.PolicyRef{Resource: "document", Action: "edit"},
	})
	if err != nil {
		t.Fatalf("attach policy to role failed: %v", err)
	}
	return out.Role
}

func checkAccess(t *testing.T, module *Module, subject, resource, action string) bool {
	t.Helper()
	ok, err := module.CheckAccess.Execute(context.Background(), queries.CheckAccessQuery{
		Subject:     subject,
		Permissions: []queries.Permission{{Resource: resource, Action: action}},
	})
	if err != nil {
		t.Fatalf("check access failed: %v", err)
	}
	return ok
}

func TestRoleGrantAllowsAccess(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("access granted before any attachment")
	}

	attached, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	})
	if err != nil {
		t.Fatalf("attach role to user failed: %v", err)
	}
	if !attached.Success {
		t.Fatal("expected success")
	}

	if !checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("expected access via role")
	}
	// Checks are pure reads: asking again returns the same answer.
	if !checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("repeated check flipped the answer")
	}
	if checkAccess(t, module, "bob@example.com", "document", "edit") {
		t.Fatal("unrelated subject gained access")
	}
}

func TestCheckAccessByUserID(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role to user failed: %v", err)
	}

	ok, err := module.CheckAccess.Execute(ctx, queries.CheckAccessQuery{
		UserID:      "user_alice",
		Permissions: []queries.Permission{{Resource: "document", Action: "edit"}},
	})
	if err != nil {
		t.Fatalf("check access failed: %v", err)
	}
	if !ok {
		t.Fatal("expected access when resolving subject from user id")
	}
}

func TestCheckAccessValidation(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	_, err := module.CheckAccess.Execute(ctx, queries.CheckAccessQuery{
		Permissions: []queries.Permission{{Resource: "document", Action: "edit"}},
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}

	_, err = module.CheckAccess.Execute(ctx, queries.CheckAccessQuery{
		UserID:      "user_unknown",
		Permissions: []queries.Permission{{Resource: "document", Action: "edit"}},
	})
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	ok, err := module.CheckAccess.Execute(ctx, queries.CheckAccessQuery{Subject: "alice@example.com"})
	if err != nil {
		t.Fatalf("check access failed: %v", err)
	}
	if !ok {
		t.Fatal("empty permission list must be vacuously true")
	}
}

func TestRolePolicyFanOut(t *testing.T) {
	module, store := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	for _, userID := range []string{"user_alice", "user_bob"} {
		if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
			UserID: userID,
			RoleID: role.ID,
		}); err != nil {
			t.Fatalf("attach role to %s failed: %v", userID, err)
		}
	}

	// A policy added to the role afterwards must reach every holder.
	if _, err := module.AttachPolicyToRole.Execute(ctx, commands.AttachPolicyToRoleInput{
		RoleID: role.ID,
		Policy: commands.PolicyRef{Resource: "document", Action: "publish"},
	}); err != nil {
		t.Fatalf("attach second policy failed: %v", err)
	}

	// Exactly one index row per holder, keyed to the role.
	publishKey := services.PolicyMapKey("document", "publish")
	for _, subject := range []string{"alice@example.com", "bob@example.com"} {
		if !checkAccess(t, module, subject, "document", "publish") {
			t.Fatalf("%s missing fanned-out permission", subject)
		}
		rows, err := store.Denorm().Count(ctx, ports.DenormFilter{
			Subject:      subject,
			PolicyMapKey: publishKey,
			RoleKey:      "editor",
		})
		if err != nil {
			t.Fatalf("count index rows failed: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected one index row for %s, got %d", subject, rows)
		}
	}
}

func TestDetachRoleRevokesOnlyRoleRows(t *testing.T) {
	module, store := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}
	if _, err := module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "report", Action: "view"},
	}); err != nil {
		t.Fatalf("attach direct policy failed: %v", err)
	}

	// One row from the role, one from the direct grant.
	total, err := store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice@example.com"})
	if err != nil {
		t.Fatalf("count index rows failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 index rows before detach, got %d", total)
	}

	if _, err := module.RemoveRoleFromUser.Execute(ctx, commands.RemoveRoleFromUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("remove role failed: %v", err)
	}

	// Detaching removes exactly the rows the role attach inserted.
	total, err = store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice@example.com"})
	if err != nil {
		t.Fatalf("count index rows failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 index row after detach, got %d", total)
	}
	roleRows, err := store.Denorm().Count(ctx, ports.DenormFilter{Subject: "alice@example.com", RoleKey: "editor"})
	if err != nil {
		t.Fatalf("count role rows failed: %v", err)
	}
	if roleRows != 0 {
		t.Fatalf("expected no role-keyed rows after detach, got %d", roleRows)
	}

	if checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("role-derived access survived detachment")
	}
	if !checkAccess(t, module, "alice@example.com", "report", "view") {
		t.Fatal("direct grant lost on role detachment")
	}
}

func TestDirectGrantLifecycle(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	out, err := module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "report", Action: "view"},
	})
	if err != nil {
		t.Fatalf("attach policy failed: %v", err)
	}
	if !checkAccess(t, module, "alice@example.com", "report", "view") {
		t.Fatal("expected direct access")
	}

	// Granting the same policy twice is rejected.
	_, err = module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "report", Action: "view"},
	})
	if !errors.Is(err, domainerrors.ErrPolicyAlreadyOnUser) {
		t.Fatalf("expected policy already on user, got %v", err)
	}

	policyID := out.Permissions.Policies[0].ID
	if _, err := module.RemovePolicyFromUser.Execute(ctx, commands.RemovePolicyFromUserInput{
		UserID:   "user_alice",
		PolicyID: policyID,
	}); err != nil {
		t.Fatalf("remove policy failed: %v", err)
	}
	if checkAccess(t, module, "alice@example.com", "report", "view") {
		t.Fatal("access survived direct revocation")
	}

	_, err = module.RemovePolicyFromUser.Execute(ctx, commands.RemovePolicyFromUserInput{
		UserID:   "user_alice",
		PolicyID: policyID,
	})
	if !errors.Is(err, domainerrors.ErrPolicyNotAttachedUser) {
		t.Fatalf("expected policy not attached, got %v", err)
	}
}

func TestDirectGrantSurvivesWhenRoleAlsoGrants(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}
	out, err := module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "document", Action: "edit"},
	})
	if err != nil {
		t.Fatalf("attach direct policy failed: %v", err)
	}

	if _, err := module.RemovePolicyFromUser.Execute(ctx, commands.RemovePolicyFromUserInput{
		UserID:   "user_alice",
		PolicyID: out.Permissions.Policies[0].ID,
	}); err != nil {
		t.Fatalf("remove direct policy failed: %v", err)
	}

	// The role still grants document/edit.
	if !checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("role-derived access lost when direct grant was revoked")
	}
}

func TestEmptyRoleNotGrantable(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	role, err := module.CreateRole.Execute(ctx, "bare")
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	_, err = module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	})
	if !errors.Is(err, domainerrors.ErrEmptyRole) {
		t.Fatalf("expected empty role error, got %v", err)
	}
}

func TestLastRolePolicyCannotBeDetached(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	_, err := module.RemovePolicyFromRole.Execute(ctx, commands.RemovePolicyFromRoleInput{
		RoleID: role.ID,
		Policy: commands.PolicyRef{Resource: "document", Action: "edit"},
	})
	if !errors.Is(err, domainerrors.ErrRoleCannotBeEmpty) {
		t.Fatalf("expected role cannot be empty, got %v", err)
	}

	// With a second policy in place the first one detaches cleanly.
	if _, err := module.AttachPolicyToRole.Execute(ctx, commands.AttachPolicyToRoleInput{
		RoleID: role.ID,
		Policy: commands.PolicyRef{Resource: "document", Action: "publish"},
	}); err != nil {
		t.Fatalf("attach second policy failed: %v", err)
	}
	if _, err := module.RemovePolicyFromRole.Execute(ctx, commands.RemovePolicyFromRoleInput{
		RoleID: role.ID,
		Policy: commands.PolicyRef{Resource: "document", Action: "edit"},
	}); err != nil {
		t.Fatalf("remove policy failed: %v", err)
	}

	policies, err := module.PoliciesForRole.Execute(ctx, role.ID)
	if err != nil {
		t.Fatalf("policies for role failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Action != "publish" {
		t.Fatalf("unexpected remaining policies %v", policies)
	}
}

func TestRemoveRoleRequiresForceWhileHeld(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}

	_, err := module.RemoveRole.Execute(ctx, commands.RemoveRoleInput{RoleID: role.ID})
	if !errors.Is(err, domainerrors.ErrRoleAttachedOnUsers) {
		t.Fatalf("expected role attached error, got %v", err)
	}

	out, err := module.RemoveRole.Execute(ctx, commands.RemoveRoleInput{RoleID: role.ID, ForceRemove: true})
	if err != nil {
		t.Fatalf("force remove failed: %v", err)
	}
	if out.UsersAffected != 1 {
		t.Fatalf("expected 1 user affected, got %d", out.UsersAffected)
	}

	if checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("access survived role removal")
	}
	_, err = module.GetRole.Execute(ctx, role.ID)
	if !errors.Is(err, domainerrors.ErrRoleNotFound) {
		t.Fatalf("expected role gone, got %v", err)
	}
}

func TestRemoveUserDropsAllGrants(t *testing.T) {
	module, store := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}
	if _, err := module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "report", Action: "view"},
	}); err != nil {
		t.Fatalf("attach policy failed: %v", err)
	}

	out, err := module.RemoveUser.Execute(ctx, commands.RemoveUserInput{UserID: "user_alice", DeleteUser: true})
	if err != nil {
		t.Fatalf("remove user failed: %v", err)
	}
	if !out.Success {
		t.Fatal("expected success")
	}

	if checkAccess(t, module, "alice@example.com", "document", "edit") {
		t.Fatal("role grant survived user removal")
	}
	if checkAccess(t, module, "alice@example.com", "report", "view") {
		t.Fatal("direct grant survived user removal")
	}
	if _, found, _ := store.Users().FindByID(ctx, "user_alice"); found {
		t.Fatal("user record survived DeleteUser")
	}
}

func TestRolesAndPoliciesForUser(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}
	if _, err := module.AttachPolicyToUser.Execute(ctx, commands.AttachPolicyToUserInput{
		UserID: "user_alice",
		Policy: commands.PolicyRef{Resource: "report", Action: "view"},
	}); err != nil {
		t.Fatalf("attach policy failed: %v", err)
	}

	roles, err := module.RolesForUser.Execute(ctx, "user_alice")
	if err != nil {
		t.Fatalf("roles for user failed: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "editor" {
		t.Fatalf("unexpected roles %v", roles)
	}

	policies, err := module.PoliciesForUser.Execute(ctx, "user_alice")
	if err != nil {
		t.Fatalf("policies for user failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Resource != "report" {
		t.Fatalf("unexpected policies %v", policies)
	}

	// A subject with no grant record reads back empty, not an error.
	roles, err = module.RolesForUser.Execute(ctx, "user_bob")
	if err != nil {
		t.Fatalf("roles for untouched user failed: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("unexpected roles %v", roles)
	}
}

func TestAttachRoleTwiceRejected(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	role := grantedEditorRole(t, module)

	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}
	_, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	})
	if !errors.Is(err, domainerrors.ErrRoleAlreadyOnUser) {
		t.Fatalf("expected role already on user, got %v", err)
	}
}

func TestGrantChangeEventsPublished(t *testing.T) {
	module, _ := newTestModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.GrantChangedEvent, 16)
	module.Bus.Subscribe(ctx, func(_ context.Context, event ports.GrantChangedEvent) error {
		received <- event
		return nil
	})

	role := grantedEditorRole(t, module)
	if _, err := module.AttachRoleToUser.Execute(ctx, commands.AttachRoleToUserInput{
		UserID: "user_alice",
		RoleID: role.ID,
	}); err != nil {
		t.Fatalf("attach role failed: %v", err)
	}

	want := map[string]bool{
		ports.EventRolePolicyAdded: false,
		ports.EventRoleAttached:    false,
	}
	deadline := time.After(2 * time.Second)
	for {
		done := true
		for _, seen := range want {
			if !seen {
				done = false
			}
		}
		if done {
			break
		}
		select {
		case event := <-received:
			if event.EventID == "" || event.OccurredAt.IsZero() {
				t.Fatalf("event missing envelope fields: %+v", event)
			}
			if _, tracked := want[event.Type]; tracked {
				want[event.Type] = true
			}
		case <-deadline:
			t.Fatalf("missing events, saw %v", want)
		}
	}
}
