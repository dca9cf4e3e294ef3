package services

import (
	"strings"

	"authkit/domain/entities"
)

// The denormalized index keys permissions by a canonical string of the
// form $<resource>$<action>. Both segments are escaped so that literal
// '$' or '\' inside resource/action values cannot collide with the
// separators; inputs containing neither character encode byte-identically
// to the unescaped legacy format.

var keyEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`)

// PolicyMapKey encodes a (resource, action) pair into the index lookup
// key. Writers building denorm rows and the access-check evaluator MUST
// both go through this function.
func PolicyMapKey(resource, action string) string {
	return "$" + keyEscaper.Replace(resource) + "$" + keyEscaper.Replace(action)
}

// PolicyKey encodes a policy entity.
func PolicyKey(policy entities.Policy) string {
	return PolicyMapKey(policy.Resource, policy.Action)
}
