package domain

// Profile holds the user fields returned by the backend at sign-in.
type Profile struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Merge overlays non-zero fields of p onto the receiver and returns the result.
func (pr Profile) Merge(p Profile) Profile {
	if p.ID != 0 {
		pr.ID = p.ID
	}
	if p.Username != "" {
		pr.Username = p.Username
	}
	if p.Email != "" {
		pr.Email = p.Email
	}
	if p.Role != "" {
		pr.Role = p.Role
	}
	return pr
}

// Identity is what the identity holder exposes to consumers. Credential is
// the full Authorization header value ("<type> <token>"); empty means the
// session is anonymous.
type Identity struct {
	Credential string  `json:"-"`
	Profile    Profile `json:"profile"`
}

// Authenticated reports whether the session carries a credential.
func (id Identity) Authenticated() bool {
	return id.Credential != ""
}
