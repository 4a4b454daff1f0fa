package models

import "time"

// RefreshToken is an opaque, server-stored token exchanged for a new
// access/refresh pair.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.Expires.After(now)
}
