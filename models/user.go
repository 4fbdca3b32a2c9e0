package models

import "time"

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Following    []string  `json:"following"`
	Followers    []string  `json:"followers"`
	SavedBlogs   []string  `json:"saved_blogs"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsFollowing reports whether u follows the given user.
func (u *User) IsFollowing(userID string) bool {
	return Contains(u.Following, userID)
}

// HasSaved reports whether the blog is in u's saved list.
func (u *User) HasSaved(blogID string) bool {
	return Contains(u.SavedBlogs, blogID)
}

// Summary returns the public display fields of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Account returns the identity fields of u including role.
func (u *User) Account() Account {
	return Account{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
