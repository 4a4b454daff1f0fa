// Package auth issues and validates the HS256 access tokens used by the API.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the caller's email and roles.
// The user id travels in the standard "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

// Identity is the subject a token is minted for.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

// Signer mints and verifies tokens for one issuer/audience pair.
type Signer struct {
	secret   []byte
	issuer   string
	audience string
	validity time.Duration
}

func NewSigner(secret, issuer, audience string, validity time.Duration) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, audience: audience, validity: validity}
}

// GenerateToken signs a token for id that expires after the signer's validity.
func (s *Signer) GenerateToken(id Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Email: id.Email,
		Roles: id.Roles,
	})

	return token.SignedString(s.secret)
}

// ParseToken validates signature, algorithm, issuer, audience and expiry.
// Expired tokens yield common.ErrTokenExpired, anything else invalid yields
// common.ErrInvalidToken.
func (s *Signer) ParseToken(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}
