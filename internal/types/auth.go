package types

// UserInfo is the verified identity attached to every authenticated request.
// It is built from validated token claims, never from request input.
type UserInfo struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the user carries any of the given roles.
func (u *UserInfo) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
