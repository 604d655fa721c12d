package model

import (
	"net/url"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the one-per-user record created right after signup.
type Profile struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	CollegeName string    `json:"college_name"`
	PhoneNumber string    `json:"phone_number"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func DefaultAvatarURL(username string) string {
	return "https://ui-avatars.com/api/?background=0D8ABC&color=fff&name=" + url.QueryEscape(username)
}

// NewProfile returns the default profile for a freshly created user.
func NewProfile(u *User) *Profile {
	return &Profile{
		UserID:    u.ID,
		AvatarURL: DefaultAvatarURL(u.Username),
	}
}
