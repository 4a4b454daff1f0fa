// Package httpapi exposes the services over the REST API: a gorilla/mux
// router, the auth and role middleware and the response envelope.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/dmitrijs2005/rustytech/internal/server/spotify"
	"github.com/gorilla/mux"
)

type AccountService interface {
	Register(ctx context.Context, req services.RegisterRequest) (services.ResponseBase, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) (services.ResponseBase, error)
	VerifyToken(token string) services.ResponseBase
	ResendEmail(ctx context.Context, email string) (services.ResponseBase, error)
	ForgotPassword(ctx context.Context, email string) (services.ResponseBase, error)
	ResetPassword(ctx context.Context, req services.ResetPasswordRequest) (services.ResponseBase, error)
	UpdateUser(ctx context.Context, req services.UpdateUserRequest) (services.ResponseBase, error)
	EnableTwoFactor(ctx context.Context, userID string) (services.ResponseBase, error)
	GetInfo(ctx context.Context, userID string) (services.ResponseBase, error)
	Logout(ctx context.Context, userID string) (services.ResponseBase, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type PostService interface {
	CreatePost(ctx context.Context, postType models.PostType, req services.CreatePostRequest) (services.ResponseBase, error)
	GetAll(ctx context.Context, published bool) ([]*services.PostDTO, error)
	GetByID(ctx context.Context, id string) (*services.PostDTO, error)
	Edit(ctx context.Context, req services.UpdatePostRequest) (services.ResponseBase, error)
	TogglePublished(ctx context.Context, postID string) (services.ResponseBase, error)
	GetAllKeywords(ctx context.Context) ([]string, error)
	GetPostKeywords(ctx context.Context, postID string) ([]string, error)
	Delete(ctx context.Context, req services.DeletePostRequest) (services.ResponseBase, error)
	Search(ctx context.Context, query string) ([]*services.PostDTO, error)
}

type UserService interface {
	GetAll(ctx context.Context) ([]services.UserDTO, error)
	GetByID(ctx context.Context, id string) (*services.UserDTO, error)
	Delete(ctx context.Context, id string) (services.ResponseBase, error)
	GetUserPosts(ctx context.Context, userID string) ([]*services.PostDTO, error)
}

type RoleService interface {
	CreateRole(ctx context.Context, name string) (services.ResponseBase, error)
	GetAllRoles(ctx context.Context) ([]services.RoleDTO, error)
	GetRoleByID(ctx context.Context, id string) (*services.RoleDTO, error)
	GetRoleByName(ctx context.Context, name string) (*services.RoleDTO, error)
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	AddRoleToUser(ctx context.Context, req services.RoleRequest) (services.ResponseBase, error)
	RemoveRoleFromUser(ctx context.Context, req services.RoleRequest) (services.ResponseBase, error)
	DeleteRole(ctx context.Context, id string) (services.ResponseBase, error)
}

type MediaService interface {
	UploadImage(ctx context.Context, f services.File) (*media.Uploaded, error)
	UploadVideo(ctx context.Context, f services.File) (*media.Uploaded, error)
	ImageMetadata(f services.File) (*media.ImageMetadata, error)
	VideoMetadata(f services.File) (*media.VideoMetadata, error)
}

type SpotifyService interface {
	AuthorizationURL(ctx context.Context, userID string) (string, error)
	Callback(ctx context.Context, code, state string) (*spotify.TokenResponse, error)
	RefreshToken(ctx context.Context, userID string) (*spotify.TokenResponse, error)
	GetUserProfile(ctx context.Context, userID string) (*spotify.UserProfile, error)
	GetArtist(ctx context.Context, userID, artistID string) (*spotify.Artist, error)
}

// Services groups everything the handlers call.
type Services struct {
	Tokens   TokenParser
	Accounts AccountService
	Posts    PostService
	Users    UserService
	Roles    RoleService
	Media    MediaService
	Spotify  SpotifyService
}

type Server struct {
	address       string
	logger        logging.Logger
	svc           Services
	maxUploadSize int64
	handler       http.Handler
}

func NewServer(address string, l logging.Logger, svc Services, maxUploadSize int64) *Server {
	s := &Server{
		address:       address,
		logger:        l.With("module", "http_server"),
		svc:           svc,
		maxUploadSize: maxUploadSize,
	}
	s.handler = recoverer(s.logger)(accessLog(s.logger)(envelope(s.routes())))
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	authed := authenticate(s.svc.Tokens)
	guard := func(h http.HandlerFunc, roles ...string) http.Handler {
		if len(roles) == 0 {
			return authed(h)
		}
		return authed(requireRoles(roles...)(h))
	}

	api := r.PathPrefix("/api").Subrouter()

	for _, prefix := range []string{"/account", "/auth"} {
		a := api.PathPrefix(prefix).Subrouter()
		a.HandleFunc("/register", s.register).Methods(http.MethodPost)
		a.HandleFunc("/login", s.login).Methods(http.MethodPost)
		a.HandleFunc("/verify/email", s.verifyEmail).Methods(http.MethodPost, http.MethodGet)
		a.Handle("/verify/token", guard(s.verifyToken)).Methods(http.MethodGet)
		a.HandleFunc("/resend", s.resendEmail).Methods(http.MethodPost)
		a.HandleFunc("/forgot/password", s.forgotPassword).Methods(http.MethodPost)
		a.Handle("/update", guard(s.updateUser)).Methods(http.MethodPut)
		a.HandleFunc("/reset/password", s.resetPassword).Methods(http.MethodPost)
		a.Handle("/manage/2fa", guard(s.enableTwoFactor)).Methods(http.MethodPost)
		a.Handle("/manage/info", guard(s.info)).Methods(http.MethodGet)
		a.Handle("/logout", guard(s.logout)).Methods(http.MethodPost)
		a.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	}

	p := api.PathPrefix("/post").Subrouter()
	p.HandleFunc("/all", s.allPosts).Methods(http.MethodGet)
	p.HandleFunc("/keywords", s.allKeywords).Methods(http.MethodGet)
	p.HandleFunc("/keywords/{postId}", s.postKeywords).Methods(http.MethodGet)
	p.Handle("/create/{type:blog|image|video}", guard(s.createPost)).Methods(http.MethodPost)
	p.Handle("/publish", guard(s.togglePublished, models.RoleAdmin, models.RoleManager)).Methods(http.MethodPost)
	p.Handle("/edit", guard(s.editPost)).Methods(http.MethodPut)
	p.Handle("/delete/{postId}", guard(s.deletePost)).Methods(http.MethodDelete)
	p.HandleFunc("/search", s.searchPosts).Methods(http.MethodGet)
	p.HandleFunc("/{postId}", s.postByID).Methods(http.MethodGet)

	u := api.PathPrefix("/user").Subrouter()
	u.HandleFunc("/get/all", s.allUsers).Methods(http.MethodGet)
	u.HandleFunc("/get/{id}", s.userByID).Methods(http.MethodGet)
	u.HandleFunc("/posts/{id}", s.userPosts).Methods(http.MethodGet)
	u.Handle("/delete/{id}", guard(s.deleteUser, models.RoleAdmin)).Methods(http.MethodDelete)

	ro := api.PathPrefix("/role").Subrouter()
	ro.Handle("/create", guard(s.createRole, models.RoleSuperAdmin)).Methods(http.MethodPost)
	ro.Handle("/get/all", guard(s.allRoles, models.RoleSuperAdmin)).Methods(http.MethodGet)
	ro.Handle("/get/name/{name}", guard(s.roleByName, models.RoleSuperAdmin)).Methods(http.MethodGet)
	ro.Handle("/get/user/{id}", guard(s.userRoles, models.RoleSuperAdmin)).Methods(http.MethodGet)
	ro.Handle("/get/{id}", guard(s.roleByID, models.RoleSuperAdmin)).Methods(http.MethodGet)
	ro.Handle("/add/user", guard(s.addRoleToUser, models.RoleSuperAdmin)).Methods(http.MethodPost)
	ro.Handle("/remove/user", guard(s.removeRoleFromUser, models.RoleSuperAdmin)).Methods(http.MethodDelete)
	ro.Handle("/delete/{id}", guard(s.deleteRole, models.RoleSuperAdmin)).Methods(http.MethodDelete)

	for _, kind := range []string{"image", "video"} {
		m := api.PathPrefix("/" + kind).Subrouter()
		m.Handle("/upload", guard(s.upload(kind))).Methods(http.MethodPost)
		m.HandleFunc("/metadata", s.metadata(kind)).Methods(http.MethodPost)
	}

	sp := api.PathPrefix("/spotify").Subrouter()
	sp.Handle("/authorization", guard(s.spotifyAuthorization)).Methods(http.MethodGet)
	sp.HandleFunc("/callback", s.spotifyCallback).Methods(http.MethodGet, http.MethodPost)
	sp.Handle("/refreshToken", guard(s.spotifyRefresh)).Methods(http.MethodPost)
	sp.Handle("/getUserProfile", guard(s.spotifyProfile)).Methods(http.MethodGet)
	sp.Handle("/getArtist", guard(s.spotifyArtist)).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
