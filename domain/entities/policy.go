package entities

// Policy is an atomic (resource, action) permission unit. Policies are
// immutable once created: there is no update operation, only find/create
// and detachment from roles or users.
type Policy struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
