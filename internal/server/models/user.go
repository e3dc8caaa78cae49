// Package models defines the server-side user record and its public
// projections.
package models

import (
	"encoding/json"
	"time"
)

// Profile is an open key/value mapping of user attributes.
type Profile map[string]any

// Clone returns a shallow copy; nil yields an empty profile.
func (p Profile) Clone() Profile {
	c := make(Profile, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// User is the stored account record. PasswordHash must not leave the
// service layer; use Public or View to build responses.
type User struct {
	Username     string
	PasswordHash string
	Email        string
	Profile      Profile
	CreatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with u.
func (u *User) Clone() *User {
	c := *u
	c.Profile = u.Profile.Clone()
	return &c
}

// PublicUser is the registration response projection.
type PublicUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfileView is the profile read projection.
type ProfileView struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public whitelists the fields returned after registration.
func (u *User) Public() *PublicUser {
	return &PublicUser{Username: u.Username, Email: u.Email}
}

// View whitelists the fields returned by a profile read.
func (u *User) View() *ProfileView {
	return &ProfileView{
		Username:  u.Username,
		Email:     u.Email,
		Profile:   u.Profile.Clone(),
		CreatedAt: u.CreatedAt,
	}
}

// MarshalJSON guards against accidental serialization of a full record.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.View())
}
