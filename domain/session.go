package domain

// Session is the client's current belief about who, if anyone, is
// authenticated. While Loading is true the initial session query has not
// settled and User must not be used for authorization decisions.
type Session struct {
	User    *User `json:"user,omitempty"`
	Loading bool  `json:"loading"`
}

// Authenticated reports whether a resolved, active identity is present.
func (s Session) Authenticated() bool {
	return !s.Loading && s.User.IsActive()
}

// Resolved reports whether the initial session query has settled.
func (s Session) Resolved() bool {
	return !s.Loading
}

// Principal is the minimal authenticated reference returned by the
// credential store before the directory record is resolved. It carries no
// role or active flag; authorization decisions require the full User.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}
