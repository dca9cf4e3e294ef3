package entities

// UserPermissions is the normalized grant record for one subject: the roles
// attached to it and the policies attached directly (role-independent).
// There is exactly one record per subject; it is created lazily on the
// first attachment and deleted when the user is removed.
type UserPermissions struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	Roles    []Role   `json:"roles"`
	Policies []Policy `json:"policies"`

	// Revision guards Roles/Policies against lost updates, same contract
	// as Role.Revision.
	Revision int64 `json:"-"`
}

// HasRole reports whether the role id is attached to the subject.
func (u UserPermissions) HasRole(roleID string) bool {
	for _, r := range u.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// HasPolicy reports whether the policy id is directly attached to the
// subject.
func (u UserPermissions) HasPolicy(policyID string) bool {
	for _, p := range u.Policies {
		if p.ID == policyID {
			return true
		}
	}
	return false
}

// WithoutRole returns the role set minus the given role id.
func (u UserPermissions) WithoutRole(roleID string) []Role {
	kept := make([]Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.ID != roleID {
			kept = append(kept, r)
		}
	}
	return kept
}

// WithoutPolicy returns the direct policy set minus the given policy id.
func (u UserPermissions) WithoutPolicy(policyID string) []Policy {
	kept := make([]Policy, 0, len(u.Policies))
	for _, p := range u.Policies {
		if p.ID != policyID {
			kept = append(kept, p)
		}
	}
	return kept
}
