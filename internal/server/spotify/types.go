package spotify

import (
	"time"

	"golang.org/x/oauth2"
)

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	TokenType    string    `json:"tokenType"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func newTokenResponse(t *oauth2.Token, now time.Time) *TokenResponse {
	r := &TokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
	}
	if !t.Expiry.IsZero() {
		r.ExpiresIn = int64(t.Expiry.Sub(now).Seconds())
	}
	return r
}

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Followers struct {
	Total int `json:"total"`
}

type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	URI         string    `json:"uri"`
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images"`
}

type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Popularity int       `json:"popularity"`
	URI        string    `json:"uri"`
	Followers  Followers `json:"followers"`
	Images     []Image   `json:"images"`
}
