package auth

import "github.com/balkashynov/attendr/internal/models"

// Session is the authenticated caller of an operation. It is passed explicitly
// into every attendance and leave operation; the zero value is unauthenticated.
type Session struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// SessionFor builds the session for a signed-in user.
func SessionFor(u *models.User) Session {
	return Session{UserID: u.ID, Email: u.Email, Role: u.Role}
}
