package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/auth"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/dmitrijs2005/rustytech/internal/server/spotify"
)

var testSigner = auth.NewSigner("test-secret", "rustytech", "rustytech-web", time.Hour)

func tokenFor(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	tok, err := testSigner.GenerateToken(auth.Identity{UserID: userID, Email: userID + "@x.io", Roles: roles})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- accounts ---

type fakeAccounts struct {
	lastUserID string
	lastToken  string
	update     services.UpdateUserRequest
	err        error
	pair       *services.TokenPair
}

func (f *fakeAccounts) result(msg string) (services.ResponseBase, error) {
	if f.err != nil {
		return services.ResponseBase{}, f.err
	}
	return services.ResponseBase{IsSuccess: true, Message: msg}, nil
}

func (f *fakeAccounts) Register(ctx context.Context, req services.RegisterRequest) (services.ResponseBase, error) {
	return f.result("registered " + req.Email)
}

func (f *fakeAccounts) Login(ctx context.Context, req services.LoginRequest) (*services.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.LoginResponse{IsAuthenticated: true, IsSuccess: true, Token: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAccounts) VerifyEmail(ctx context.Context, token string) (services.ResponseBase, error) {
	f.lastToken = token
	return f.result(common.MsgEmailVerified)
}

func (f *fakeAccounts) VerifyToken(token string) services.ResponseBase {
	f.lastToken = token
	return services.ResponseBase{IsSuccess: true, Message: common.MsgValidToken}
}

func (f *fakeAccounts) ResendEmail(ctx context.Context, email string) (services.ResponseBase, error) {
	return f.result(common.MsgResendEmail)
}

func (f *fakeAccounts) ForgotPassword(ctx context.Context, email string) (services.ResponseBase, error) {
	return f.result(common.MsgResetEmailSent + " " + email)
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, req services.ResetPasswordRequest) (services.ResponseBase, error) {
	return f.result(common.MsgPasswordReset)
}

func (f *fakeAccounts) UpdateUser(ctx context.Context, req services.UpdateUserRequest) (services.ResponseBase, error) {
	f.update = req
	return f.result(common.MsgUserUpdated)
}

func (f *fakeAccounts) EnableTwoFactor(ctx context.Context, userID string) (services.ResponseBase, error) {
	f.lastUserID = userID
	return f.result(common.MsgTwoFactorEnabled)
}

func (f *fakeAccounts) GetInfo(ctx context.Context, userID string) (services.ResponseBase, error) {
	f.lastUserID = userID
	return f.result("Two factor enabled? false")
}

func (f *fakeAccounts) Logout(ctx context.Context, userID string) (services.ResponseBase, error) {
	f.lastUserID = userID
	return f.result(common.MsgUserLoggedOut)
}

func (f *fakeAccounts) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	f.lastToken = token
	return f.pair, f.err
}

// --- posts ---

type fakePosts struct {
	created   services.CreatePostRequest
	postType  models.PostType
	published *bool
	edited    services.UpdatePostRequest
	toggled   string
	deleted   services.DeletePostRequest
	query     string
	err       error
	panics    bool
}

func (f *fakePosts) CreatePost(ctx context.Context, pt models.PostType, req services.CreatePostRequest) (services.ResponseBase, error) {
	f.postType, f.created = pt, req
	return services.ResponseBase{IsSuccess: true, Message: common.MsgPostCreated}, f.err
}

func (f *fakePosts) GetAll(ctx context.Context, published bool) ([]*services.PostDTO, error) {
	if f.panics {
		panic("boom")
	}
	f.published = &published
	return []*services.PostDTO{{ID: "p1", Title: "first", Keywords: []string{}}}, f.err
}

func (f *fakePosts) GetByID(ctx context.Context, id string) (*services.PostDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.PostDTO{ID: id, Keywords: []string{}}, nil
}

func (f *fakePosts) Edit(ctx context.Context, req services.UpdatePostRequest) (services.ResponseBase, error) {
	f.edited = req
	return services.ResponseBase{IsSuccess: true, Message: common.MsgPostUpdated}, f.err
}

func (f *fakePosts) TogglePublished(ctx context.Context, id string) (services.ResponseBase, error) {
	f.toggled = id
	return services.ResponseBase{IsSuccess: true, Message: "toggled"}, f.err
}

func (f *fakePosts) GetAllKeywords(ctx context.Context) ([]string, error) {
	return []string{"go", "web"}, f.err
}

func (f *fakePosts) GetPostKeywords(ctx context.Context, id string) ([]string, error) {
	return []string{"go"}, f.err
}

func (f *fakePosts) Delete(ctx context.Context, req services.DeletePostRequest) (services.ResponseBase, error) {
	f.deleted = req
	return services.ResponseBase{IsSuccess: true, Message: common.MsgPostDeleted}, f.err
}

func (f *fakePosts) Search(ctx context.Context, query string) ([]*services.PostDTO, error) {
	f.query = query
	return []*services.PostDTO{{ID: "p3", Title: "Learning Rust", Keywords: []string{}}}, f.err
}

// --- users and roles ---

type fakeUsers struct{ deleted string }

func (f *fakeUsers) GetAll(ctx context.Context) ([]services.UserDTO, error) {
	return []services.UserDTO{{ID: "u1", Email: "a@x.io"}}, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*services.UserDTO, error) {
	return &services.UserDTO{ID: id, Email: "a@x.io"}, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) (services.ResponseBase, error) {
	f.deleted = id
	return services.ResponseBase{IsSuccess: true, Message: common.MsgUserDeleted}, nil
}

func (f *fakeUsers) GetUserPosts(ctx context.Context, id string) ([]*services.PostDTO, error) {
	return []*services.PostDTO{}, nil
}

type fakeRoles struct {
	created string
	added   services.RoleRequest
}

func (f *fakeRoles) CreateRole(ctx context.Context, name string) (services.ResponseBase, error) {
	f.created = name
	return services.ResponseBase{IsSuccess: true, Message: common.MsgRoleCreated}, nil
}

func (f *fakeRoles) GetAllRoles(ctx context.Context) ([]services.RoleDTO, error) {
	return []services.RoleDTO{{ID: "r1", RoleName: "Admin"}}, nil
}

func (f *fakeRoles) GetRoleByID(ctx context.Context, id string) (*services.RoleDTO, error) {
	return &services.RoleDTO{ID: id}, nil
}

func (f *fakeRoles) GetRoleByName(ctx context.Context, name string) (*services.RoleDTO, error) {
	return &services.RoleDTO{RoleName: name}, nil
}

func (f *fakeRoles) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	return []string{"Admin"}, nil
}

func (f *fakeRoles) AddRoleToUser(ctx context.Context, req services.RoleRequest) (services.ResponseBase, error) {
	f.added = req
	return services.ResponseBase{IsSuccess: true, Message: common.MsgRoleAddedToUser}, nil
}

func (f *fakeRoles) RemoveRoleFromUser(ctx context.Context, req services.RoleRequest) (services.ResponseBase, error) {
	return services.ResponseBase{IsSuccess: true, Message: common.MsgRoleRemoved}, nil
}

func (f *fakeRoles) DeleteRole(ctx context.Context, id string) (services.ResponseBase, error) {
	return services.ResponseBase{IsSuccess: true, Message: common.MsgRoleDeleted}, nil
}

// --- media and spotify ---

type fakeMedia struct{ got services.File }

func (f *fakeMedia) UploadImage(ctx context.Context, file services.File) (*media.Uploaded, error) {
	f.got = file
	return &media.Uploaded{Key: "media/images/x.png", URL: "https://cdn/x.png"}, nil
}

func (f *fakeMedia) UploadVideo(ctx context.Context, file services.File) (*media.Uploaded, error) {
	f.got = file
	return &media.Uploaded{Key: "media/videos/x.mp4", URL: "https://cdn/x.mp4"}, nil
}

func (f *fakeMedia) ImageMetadata(file services.File) (*media.ImageMetadata, error) {
	f.got = file
	return &media.ImageMetadata{Width: 10, Height: 5, Format: "png"}, nil
}

func (f *fakeMedia) VideoMetadata(file services.File) (*media.VideoMetadata, error) {
	f.got = file
	return &media.VideoMetadata{Name: file.Name, ContentType: "video/mp4", Size: int64(len(file.Data))}, nil
}

type fakeSpotify struct {
	code, state string
	userID      string
}

func (f *fakeSpotify) AuthorizationURL(ctx context.Context, userID string) (string, error) {
	f.userID = userID
	return "https://accounts.test/authorize?state=signed." + userID, nil
}

func (f *fakeSpotify) Callback(ctx context.Context, code, state string) (*spotify.TokenResponse, error) {
	f.code, f.state = code, state
	return &spotify.TokenResponse{AccessToken: "at"}, nil
}

func (f *fakeSpotify) RefreshToken(ctx context.Context, userID string) (*spotify.TokenResponse, error) {
	f.userID = userID
	return &spotify.TokenResponse{AccessToken: "refreshed"}, nil
}

func (f *fakeSpotify) GetUserProfile(ctx context.Context, userID string) (*spotify.UserProfile, error) {
	f.userID = userID
	return &spotify.UserProfile{ID: "sp1"}, nil
}

func (f *fakeSpotify) GetArtist(ctx context.Context, userID, artistID string) (*spotify.Artist, error) {
	f.userID = userID
	return &spotify.Artist{ID: artistID}, nil
}

// --- harness ---

type harness struct {
	srv      *Server
	accounts *fakeAccounts
	posts    *fakePosts
	users    *fakeUsers
	roles    *fakeRoles
	media    *fakeMedia
	spotify  *fakeSpotify
}

func newHarness() *harness {
	h := &harness{
		accounts: &fakeAccounts{},
		posts:    &fakePosts{},
		users:    &fakeUsers{},
		roles:    &fakeRoles{},
		media:    &fakeMedia{},
		spotify:  &fakeSpotify{},
	}
	h.srv = NewServer(":0", discardLogger(), Services{
		Tokens:   testSigner,
		Accounts: h.accounts,
		Posts:    h.posts,
		Users:    h.users,
		Roles:    h.roles,
		Media:    h.media,
		Spotify:  h.spotify,
	}, 1<<20)
	return h
}

type envelopeResult struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

func (h *harness) do(t *testing.T, method, target, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelopeResult) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	var env envelopeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v: %s", err, rec.Body.String())
	}
	return rec, env
}

func (h *harness) doJSON(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, envelopeResult) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return h.do(t, method, target, token, r, "application/json")
}

func decodeData[T any](t *testing.T, env envelopeResult) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v: %s", err, env.Data)
	}
	return v
}
