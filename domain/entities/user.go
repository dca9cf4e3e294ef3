package entities

// User is the library's projection of the host-owned user record: its id
// and the value of the configured subject attribute. The subject string,
// not the host id, keys every grant and every permission decision.
type User struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}
