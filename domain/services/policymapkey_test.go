package services

import (
	"testing"

	"authkit/domain/entities"
)

func TestPolicyMapKeyFormat(t *testing.T) {
	key := PolicyMapKey("document", "edit")
	if key != "$document$edit" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestPolicyKeyMatchesPolicyMapKey(t *testing.T) {
	policy := entities.Policy{ID: "pol_1", Resource: "campaign", Action: "view"}
	if PolicyKey(policy) != PolicyMapKey("campaign", "view") {
		t.Fatalf("key mismatch: %q vs %q", PolicyKey(policy), PolicyMapKey("campaign", "view"))
	}
}

func TestPolicyMapKeyEscapesDollar(t *testing.T) {
	// Without escaping these two would collide on "$a$b$c".
	a := PolicyMapKey("a$b", "c")
	b := PolicyMapKey("a", "b$c")
	if a == b {
		t.Fatalf("keys collided: %q", a)
	}
}

func TestPolicyMapKeyEscapesBackslash(t *testing.T) {
	a := PolicyMapKey(`a\`, "b")
	b := PolicyMapKey("a", `\b`)
	if a == b {
		t.Fatalf("keys collided: %q", a)
	}
	c := PolicyMapKey(`a\$`, "b")
	d := PolicyMapKey(`a`, `$b`)
	if c == d {
		t.Fatalf("keys collided: %q", c)
	}
}
