package entities

// UserPolicyDenorm is one flattened fact in the denormalized permission
// index: "subject holds the permission encoded by PolicyMapKey, because of
// RoleKey". RoleKey nil means the policy is attached directly, not via a
// role. Rows are only ever inserted or deleted as a unit per grant; the
// index must always be re-derivable from Role/UserPermissions state.
type UserPolicyDenorm struct {
	ID           string  `json:"id"`
	Subject      string  `json:"subject"`
	PolicyMapKey string  `json:"policyMapKey"`
	RoleKey      *string `json:"roleKey,omitempty"`
}

// Direct reports whether the row represents a role-independent grant.
func (d UserPolicyDenorm) Direct() bool {
	return d.RoleKey == nil
}
