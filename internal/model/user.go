package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is the single persisted session record for a user. The store
// enforces at most one row per user_id.
type RefreshToken struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal is the authenticated identity attached to a request after the
// access token has been verified. Never persisted.
type Principal struct {
	User        User
	Authorities []string
}

// AuthoritiesFor maps a stored role to its granted authorities.
func AuthoritiesFor(role string) []string {
	return []string{"ROLE_" + role}
}

func (p *Principal) HasRole(role string) bool {
	want := "ROLE_" + role
	for _, a := range p.Authorities {
		if a == want {
			return true
		}
	}
	return false
}
