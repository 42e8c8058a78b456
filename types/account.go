package types

import "time"

// Account represents a registered user of the dashboard.
// It contains identity, credentials, and profile fields.
type Account struct {
	// ID is the opaque unique identifier of the account.
	ID string `json:"id" db:"id"`

	// Username is the unique, lowercase login name.
	Username string `json:"username" db:"username"`

	// Email is the unique, lowercase email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the salted one-way hash of the account password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Name is the display name.
	Name string `json:"name" db:"name"`

	// Phone is an optional contact number.
	Phone string `json:"phone" db:"phone"`

	// Bio is a free-form description written by the account owner.
	Bio string `json:"bio" db:"bio"`

	// Position is the job title shown on the profile.
	Position string `json:"position" db:"position"`

	// Department is the organisational unit shown on the profile.
	Department string `json:"department" db:"department"`

	// Avatar is the public URL of the profile picture.
	Avatar string `json:"avatar" db:"avatar"`

	// Banner is the public URL of the profile banner image.
	Banner string `json:"banner" db:"banner"`

	// CreatedAt is the timestamp when the account was registered.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the client-safe projection of an Account.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Bio        string `json:"bio"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Avatar     string `json:"avatar"`
	Banner     string `json:"banner"`
}

// Profile returns the public projection of the account.
func (a Account) Profile() Profile {
	return Profile{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Name:       a.Name,
		Phone:      a.Phone,
		Bio:        a.Bio,
		Position:   a.Position,
		Department: a.Department,
		Avatar:     a.Avatar,
		Banner:     a.Banner,
	}
}
