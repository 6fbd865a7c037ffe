package domain

// User is the identity handed over by the authentication collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AuthState backs both the customer and the admin auth stores. Tokens are
// issued and verified elsewhere; the engine only keeps them for the session.
type AuthState struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (a AuthState) IsAuthenticated() bool {
	return a.Token != "" && a.User != nil && a.User.ID != ""
}

func (a AuthState) UserID() string {
	if a.User == nil {
		return ""
	}
	return a.User.ID
}

func (a AuthState) Clone() AuthState {
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	return a
}
