package models

import "time"

type User struct {
	ID                 string
	Email              string
	NormalizedEmail    string
	UserName           string
	NormalizedUserName string
	PasswordHash       []byte
	PasswordSalt       []byte
	BirthYear          int
	VerificationToken  string
	VerifiedAt         *time.Time
	EmailConfirmed     bool
	ResetToken         string
	ResetTokenExpires  *time.Time
	TwoFactorEnabled   bool
	CreatedAt          time.Time
}

// IsVerified reports whether the user has confirmed their email address.
func (u *User) IsVerified() bool {
	return u.VerifiedAt != nil
}

// LoginInfo records one successful sign-in.
type LoginInfo struct {
	ID        string
	UserID    string
	LoginTime time.Time
	Provider  string
}
