package entities

// Role models a named, reusable bundle of policies that can be attached to
// subjects. A role that has ever held a policy must never drop to zero
// policies while it exists; the last policy can only go away through role
// removal.
type Role struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Policies []Policy `json:"policies"`

	// Revision guards Policies against lost updates: saves are
	// compare-and-swap on this counter.
	Revision int64 `json:"-"`
}

// HasPolicy reports whether the policy id is attached to the role.
func (r Role) HasPolicy(policyID string) bool {
	for _, p := range r.Policies {
		if p.ID == policyID {
			return true
		}
	}
	return false
}

// WithoutPolicy returns the policy set minus the given policy id.
func (r Role) WithoutPolicy(policyID string) []Policy {
	kept := make([]Policy, 0, len(r.Policies))
	for _, p := range r.Policies {
		if p.ID != policyID {
			kept = append(kept, p)
		}
	}
	return kept
}
