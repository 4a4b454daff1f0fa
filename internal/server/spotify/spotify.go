// Package spotify links user accounts to Spotify through the OAuth2
// authorization-code flow and proxies a few Web API reads.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/netx"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL  = "https://accounts.spotify.com/authorize"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIURL   = "https://api.spotify.com/v1"

)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// StateSecret signs the OAuth state; StateTTL bounds how long a
	// consent round trip may take.
	StateSecret string
	StateTTL    time.Duration

	// Endpoint overrides, empty means the public Spotify endpoints.
	AuthURL  string
	TokenURL string
	APIURL   string
}

type Client struct {
	oauth  *oauth2.Config
	store  TokenStore
	states *StateSigner
	apiURL string
	now    func() time.Time
}

func NewClient(cfg Config, store TokenStore) *Client {
	authURL := orDefault(cfg.AuthURL, DefaultAuthURL)
	tokenURL := orDefault(cfg.TokenURL, DefaultTokenURL)

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:  store,
		states: NewStateSigner(cfg.StateSecret, cfg.StateTTL),
		apiURL: strings.TrimRight(orDefault(cfg.APIURL, DefaultAPIURL), "/"),
		now:    time.Now,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// AuthorizationURL returns the consent page URL for userID with a freshly
// signed state.
func (c *Client) AuthorizationURL(userID string) (string, error) {
	state, err := c.states.Encode(userID)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true")), nil
}

// UserFromState verifies a state returned by the consent page.
func (c *Client) UserFromState(state string) (string, error) {
	return c.states.Decode(state)
}

func (c *Client) Callback(ctx context.Context, code, userID string) (*TokenResponse, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("spotify exchange: %w", err)
	}
	if err := c.store.Save(ctx, userID, tok); err != nil {
		return nil, err
	}
	return newTokenResponse(tok, c.now()), nil
}

// RefreshAccessToken forces a refresh regardless of the stored expiry.
func (c *Client) RefreshAccessToken(ctx context.Context, userID string) (*TokenResponse, error) {
	tok, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	expired := *tok
	expired.Expiry = c.now().Add(-time.Minute)

	fresh, err := c.oauth.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, fmt.Errorf("spotify refresh: %w", err)
	}
	if err := c.store.Save(ctx, userID, fresh); err != nil {
		return nil, err
	}
	return newTokenResponse(fresh, c.now()), nil
}

func (c *Client) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	hc, err := c.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	var p UserProfile
	if err := netx.GetJSON(ctx, hc, c.apiURL+"/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetArtist(ctx context.Context, userID, artistID string) (*Artist, error) {
	hc, err := c.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	var a Artist
	if err := netx.GetJSON(ctx, hc, c.apiURL+"/artists/"+url.PathEscape(artistID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// httpClient returns a client that refreshes the stored token when needed
// and writes refreshed tokens back to the store.
func (c *Client) httpClient(ctx context.Context, userID string) (*http.Client, error) {
	tok, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	ts := &persistingSource{
		ctx:    ctx,
		base:   c.oauth.TokenSource(ctx, tok),
		store:  c.store,
		userID: userID,
		last:   tok.AccessToken,
	}
	return oauth2.NewClient(ctx, ts), nil
}

type persistingSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	store  TokenStore
	userID string
	last   string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		if err := p.store.Save(p.ctx, p.userID, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
