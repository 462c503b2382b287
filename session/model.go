package session

// User is the authenticated profile delivered by the verification service.
// The engine does not interpret Role; it is carried for host-side routing.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the durable authenticated credential: an opaque token and the
// profile it was issued for. Sessions are replaced whole; callers must not
// mutate one field of a stored session in place.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Clone returns an independent copy so a caller cannot alias the engine's
// in-memory session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}
