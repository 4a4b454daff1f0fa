// Package services contains server-side business logic. AccountService covers
// registration, login, email verification, password reset and the
// access/refresh token pair issued to clients.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/cryptox"
	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/auth"
	"github.com/dmitrijs2005/rustytech/internal/server/config"
	"github.com/dmitrijs2005/rustytech/internal/server/mail"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AccountService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	signer                       *auth.Signer
	mailer                       mail.Mailer
	log                          logging.Logger
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
	confirmEmailURL              string
	resetPasswordURL             string
	now                          func() time.Time
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, mailer mail.Mailer, l logging.Logger) *AccountService {
	return &AccountService{
		db:                           db,
		repomanager:                  m,
		signer:                       auth.NewSigner(cfg.SecretKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenValidityDuration),
		mailer:                       mailer,
		log:                          l,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
		confirmEmailURL:              cfg.ConfirmEmailURL,
		resetPasswordURL:             cfg.ResetPasswordURL,
		now:                          time.Now,
	}
}

// Signer exposes the token signer so the HTTP layer can authenticate requests
// with the same keys.
func (s *AccountService) Signer() *auth.Signer { return s.signer }

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Register creates an unverified account and mails a confirmation link.
// Checks run in a fixed order: field rules, taken username, email format,
// taken email.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (ResponseBase, error) {
	if err := validateStruct(req); err != nil {
		return ResponseBase{}, err
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByUserName(ctx, normalize(req.UserName)); err == nil {
		return ResponseBase{}, badRequest(common.MsgBadRequest)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return ResponseBase{}, err
	}

	if !isEmail(req.Email) {
		return ResponseBase{}, badRequest(common.MsgInvalidEmail)
	}

	if _, err := repo.GetByEmail(ctx, normalize(req.Email)); err == nil {
		return ResponseBase{}, badRequest(common.MsgBadRequest)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return ResponseBase{}, err
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return ResponseBase{}, common.ErrorInternal
	}

	salt := cryptox.NewSalt()
	user := &models.User{
		Email:              strings.TrimSpace(req.Email),
		NormalizedEmail:    normalize(req.Email),
		UserName:           strings.TrimSpace(req.UserName),
		NormalizedUserName: normalize(req.UserName),
		PasswordHash:       cryptox.HashPassword(req.Password, salt),
		PasswordSalt:       salt,
		BirthYear:          req.BirthYear,
		VerificationToken:  token,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ResponseBase{}, badRequest(common.MsgBadRequest)
		}
		return ResponseBase{}, fmt.Errorf("error creating user: %w", err)
	}

	s.send(ctx, mail.ConfirmationEmail(user.Email, s.confirmEmailURL, user.ID, token))
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return ok(common.MsgUserRegistered), nil
}

// Login checks credentials, records the sign-in and returns a token pair.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalize(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgUserNotFound)
		}
		return nil, err
	}
	if !user.IsVerified() {
		return nil, reject(common.ErrorForbidden, common.MsgUserNotVerified)
	}
	if !cryptox.VerifyPassword(req.Password, user.PasswordSalt, user.PasswordHash) {
		return nil, reject(common.ErrorUnauthorized, common.MsgInvalidCredentials)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Logins(tx).Create(ctx, &models.LoginInfo{
			UserID:    user.ID,
			LoginTime: s.now().UTC(),
			Provider:  "password",
		}); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResponse{
		IsAuthenticated: true,
		IsSuccess:       true,
		Message:         common.MsgUserLoggedIn,
		User:            &UserDTO{ID: user.ID, Email: user.Email},
		Token:           pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
	}, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, token string) (ResponseBase, error) {
	if token == "" {
		return ResponseBase{}, badRequest(common.MsgInvalidToken)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, badRequest(common.MsgInvalidToken)
		}
		return ResponseBase{}, err
	}

	now := s.now().UTC()
	user.VerifiedAt = &now
	user.EmailConfirmed = true
	if err := repo.Update(ctx, user); err != nil {
		return ResponseBase{}, err
	}

	return ok(common.MsgEmailVerified), nil
}

// VerifyToken reports whether an access token is well-formed, correctly
// signed and unexpired.
func (s *AccountService) VerifyToken(token string) ResponseBase {
	if _, err := s.signer.ParseToken(token); err != nil {
		return ResponseBase{IsSuccess: false, Message: common.MsgInvalidToken}
	}
	return ok(common.MsgValidToken)
}

func (s *AccountService) ResendEmail(ctx context.Context, email string) (ResponseBase, error) {
	if strings.TrimSpace(email) == "" {
		return ResponseBase{}, badRequest(common.MsgEmailRequired)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalize(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}

	if user.VerificationToken != "" {
		s.send(ctx, mail.ConfirmationEmail(user.Email, s.confirmEmailURL, user.ID, user.VerificationToken))
	}

	return ok(common.MsgResendEmail), nil
}

func (s *AccountService) ForgotPassword(ctx context.Context, email string) (ResponseBase, error) {
	if strings.TrimSpace(email) == "" {
		return ResponseBase{}, badRequest(common.MsgEmailRequired)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalize(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}

	token, err := common.MakeRandHexString(64)
	if err != nil {
		return ResponseBase{}, common.ErrorInternal
	}
	expires := s.now().UTC().Add(s.resetTokenValidityDuration)
	user.ResetToken = token
	user.ResetTokenExpires = &expires

	if err := repo.Update(ctx, user); err != nil {
		return ResponseBase{}, err
	}

	s.send(ctx, mail.ResetPasswordEmail(user.Email, s.resetPasswordURL, user.ID, token))
	s.log.Info(ctx, "password reset requested", "user_id", user.ID)

	return ok(common.MsgResetEmailSent), nil
}

// ResetPassword sets a new password when the reset code matches and has not
// expired. The verification token is rotated and mailed as a notification.
func (s *AccountService) ResetPassword(ctx context.Context, req ResetPasswordRequest) (ResponseBase, error) {
	if req.Email == "" || req.NewPassword == "" || req.ResetCode == "" {
		return ResponseBase{}, badRequest(common.MsgDataRecheck)
	}
	if !isStrongPassword(req.NewPassword) {
		return ResponseBase{}, badRequest(common.MsgPasswordError)
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		return ResponseBase{}, badRequest(common.MsgPasswordMismatch)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalize(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}

	code, err := url.QueryUnescape(req.ResetCode)
	if err != nil || user.ResetToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.ResetToken), []byte(code)) != 1 {
		return ResponseBase{}, badRequest(common.MsgInvalidToken)
	}
	if user.ResetTokenExpires == nil || !s.now().Before(*user.ResetTokenExpires) {
		return ResponseBase{}, badRequest(common.MsgTokenExpired)
	}

	verification, err := common.MakeRandHexString(32)
	if err != nil {
		return ResponseBase{}, common.ErrorInternal
	}

	salt := cryptox.NewSalt()
	user.PasswordHash = cryptox.HashPassword(req.NewPassword, salt)
	user.PasswordSalt = salt
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	user.VerificationToken = verification

	if err := repo.Update(ctx, user); err != nil {
		return ResponseBase{}, err
	}

	s.send(ctx, mail.PasswordChangedEmail(user.Email, s.confirmEmailURL, user.ID, verification))

	return ok(common.MsgPasswordReset), nil
}

// UpdateUser applies profile changes. A new email address must be confirmed
// again before the next login.
func (s *AccountService) UpdateUser(ctx context.Context, req UpdateUserRequest) (ResponseBase, error) {
	if req.UserID == "" {
		return ResponseBase{}, badRequest(common.MsgIDRequired)
	}
	if err := validateStruct(req); err != nil {
		return ResponseBase{}, err
	}
	if !validID(req.UserID) {
		return ResponseBase{}, notFound(common.MsgUserNotFound)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}

	if req.UserName != nil {
		user.UserName = strings.TrimSpace(*req.UserName)
		user.NormalizedUserName = normalize(*req.UserName)
	}
	if req.BirthYear != 0 {
		user.BirthYear = req.BirthYear
	}

	emailChanged := false
	if req.Email != nil && normalize(*req.Email) != user.NormalizedEmail {
		if !isEmail(*req.Email) {
			return ResponseBase{}, badRequest(common.MsgInvalidEmail)
		}
		token, err := common.MakeRandHexString(32)
		if err != nil {
			return ResponseBase{}, common.ErrorInternal
		}
		user.Email = strings.TrimSpace(*req.Email)
		user.NormalizedEmail = normalize(*req.Email)
		user.VerifiedAt = nil
		user.EmailConfirmed = false
		user.VerificationToken = token
		emailChanged = true
	}

	if err := repo.Update(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ResponseBase{}, badRequest(common.MsgBadRequest)
		}
		return ResponseBase{}, err
	}

	if emailChanged {
		s.send(ctx, mail.ConfirmationEmail(user.Email, s.confirmEmailURL, user.ID, user.VerificationToken))
	}

	return ok(common.MsgUserUpdated), nil
}

func (s *AccountService) EnableTwoFactor(ctx context.Context, userID string) (ResponseBase, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return ResponseBase{}, err
	}

	user.TwoFactorEnabled = true
	if err := s.repomanager.Users(s.db).Update(ctx, user); err != nil {
		return ResponseBase{}, err
	}
	return ok(common.MsgTwoFactorEnabled), nil
}

func (s *AccountService) GetInfo(ctx context.Context, userID string) (ResponseBase, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return ResponseBase{}, err
	}
	return ok(fmt.Sprintf("Two factor enabled? %t", user.TwoFactorEnabled)), nil
}

// Logout revokes every refresh token of the user. Access tokens stay valid
// until they expire.
func (s *AccountService) Logout(ctx context.Context, userID string) (ResponseBase, error) {
	if err := s.repomanager.RefreshTokens(s.db).DeleteForUser(ctx, userID); err != nil {
		return ResponseBase{}, err
	}
	return ok(common.MsgUserLoggedOut), nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(s.now()) {
		if err := repo.Delete(ctx, refreshToken); err != nil {
			s.log.Error(ctx, "expired refresh token not removed", "user_id", token.UserID, "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// PurgeExpiredTokens deletes refresh tokens past their expiry.
func (s *AccountService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
}

// EnsureAdmin makes sure a verified account with the SuperAdmin role exists
// for email. A missing account is created with password; an existing one
// keeps its password and is only verified and granted the role.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, userName, password string) error {
	if !isEmail(email) {
		return fmt.Errorf("admin email %q is invalid", email)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		now := s.now().UTC()

		user, err := users.GetByEmail(ctx, normalize(email))
		switch {
		case errors.Is(err, common.ErrorNotFound):
			if !isStrongPassword(password) {
				return errors.New("admin password is too weak")
			}
			if strings.TrimSpace(userName) == "" {
				return errors.New("admin user name is required")
			}
			salt := cryptox.NewSalt()
			user, err = users.Create(ctx, &models.User{
				Email:              strings.TrimSpace(email),
				NormalizedEmail:    normalize(email),
				UserName:           strings.TrimSpace(userName),
				NormalizedUserName: normalize(userName),
				PasswordHash:       cryptox.HashPassword(password, salt),
				PasswordSalt:       salt,
				VerifiedAt:         &now,
				EmailConfirmed:     true,
			})
			if err != nil {
				return fmt.Errorf("error creating admin: %w", err)
			}
			s.log.Info(ctx, "admin account created", "user_id", user.ID)
		case err != nil:
			return err
		case !user.IsVerified():
			user.VerifiedAt = &now
			user.EmailConfirmed = true
			if err := users.Update(ctx, user); err != nil {
				return err
			}
		}

		roles := s.repomanager.Roles(tx)
		role, err := roles.GetByName(ctx, normalize(models.RoleSuperAdmin))
		if err != nil {
			return fmt.Errorf("role %s: %w", models.RoleSuperAdmin, err)
		}
		held, err := roles.ListForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, r := range held {
			if r.ID == role.ID {
				return nil
			}
		}
		if err := roles.AddToUser(ctx, user.ID, role.ID); err != nil {
			return err
		}
		s.log.Info(ctx, "admin role granted", "user_id", user.ID, "role", role.Name)
		return nil
	})
}

// --- helpers below ---

func (s *AccountService) findUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, badRequest(common.MsgIDRequired)
	}
	if !validID(userID) {
		return nil, notFound(common.MsgUserNotFound)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// send hands msg to the mailer. Delivery failures are logged only.
func (s *AccountService) send(ctx context.Context, msg mail.Message) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "mail not queued", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

func (s *AccountService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	roles, err := s.repomanager.Roles(tx).ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	access, err := s.signer.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email, Roles: names})
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		UserID:  user.ID,
		Token:   refresh,
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	}); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
