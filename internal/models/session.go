package models

// Session is the authenticated console session a request runs under.
type Session struct {
	ID       string `json:"id"`
	Token    string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`

	// IPAddress is the client address of the current request.
	IPAddress string `json:"-"`
}

// CreateSessionRequest establishes a console session from an upstream login.
type CreateSessionRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}
