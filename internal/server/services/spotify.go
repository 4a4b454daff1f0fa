package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rustytech/internal/server/spotify"
)

type SpotifyClient interface {
	AuthorizationURL(userID string) (string, error)
	UserFromState(state string) (string, error)
	Callback(ctx context.Context, code, userID string) (*spotify.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, userID string) (*spotify.TokenResponse, error)
	GetUserProfile(ctx context.Context, userID string) (*spotify.UserProfile, error)
	GetArtist(ctx context.Context, userID, artistID string) (*spotify.Artist, error)
}

// SpotifyService links local users to their Spotify account.
type SpotifyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	client      SpotifyClient
}

func NewSpotifyService(db *sql.DB, m repomanager.RepositoryManager, c SpotifyClient) *SpotifyService {
	return &SpotifyService{db: db, repomanager: m, client: c}
}

func (s *SpotifyService) AuthorizationURL(ctx context.Context, userID string) (string, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return "", err
	}
	return s.client.AuthorizationURL(userID)
}

// Callback completes the OAuth flow. The user is taken from state, which
// must carry the signature minted by AuthorizationURL.
func (s *SpotifyService) Callback(ctx context.Context, code, state string) (*spotify.TokenResponse, error) {
	if code == "" {
		return nil, badRequest(common.MsgBadRequest)
	}
	userID, err := s.client.UserFromState(state)
	if err != nil {
		return nil, badRequest(common.MsgInvalidToken)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.client.Callback(ctx, code, userID)
}

func (s *SpotifyService) RefreshToken(ctx context.Context, userID string) (*spotify.TokenResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	tok, err := s.client.RefreshAccessToken(ctx, userID)
	return tok, notLinked(err)
}

func (s *SpotifyService) GetUserProfile(ctx context.Context, userID string) (*spotify.UserProfile, error) {
	p, err := s.client.GetUserProfile(ctx, userID)
	return p, notLinked(err)
}

func (s *SpotifyService) GetArtist(ctx context.Context, userID, artistID string) (*spotify.Artist, error) {
	if artistID == "" {
		return nil, badRequest(common.MsgIDRequiredLower)
	}
	a, err := s.client.GetArtist(ctx, userID, artistID)
	return a, notLinked(err)
}

func notLinked(err error) error {
	if errors.Is(err, common.ErrNotConnected) {
		return notFound(common.MsgSpotifyNotLinked)
	}
	return err
}

func (s *SpotifyService) requireUser(ctx context.Context, userID string) error {
	if userID == "" {
		return badRequest(common.MsgUserIDRequired)
	}
	if !validID(userID) {
		return notFound(common.MsgUserNotFound)
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFound(common.MsgUserNotFound)
		}
		return err
	}
	return nil
}
