package domain

import "time"

// Role is the access class of a user, fixed at account creation.
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	return r == RoleClient || r == RoleAgent
}

// User is the domain model for anyone who logs in: clients file tickets,
// agents work them. Users are created only by the seed tooling, never
// through the API.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Profile is the reduced view of a user returned by login. It never
// carries the password hash.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ProfileOf derives the login profile from a user.
func ProfileOf(u *User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
