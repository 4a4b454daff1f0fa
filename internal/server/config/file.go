package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/flagx"
	"github.com/dmitrijs2005/rustytech/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML decoding. Durations accept
// strings such as "15m" or integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	HTTPAddr    string `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`
	LogBackend  string `json:"log_backend" yaml:"log_backend"`

	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	JWTIssuer                    string         `json:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience                  string         `json:"jwt_audience" yaml:"jwt_audience"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration" yaml:"reset_token_validity_duration"`

	SMTPHost     string `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort     int    `json:"smtp_port" yaml:"smtp_port"`
	SMTPUsername string `json:"smtp_username" yaml:"smtp_username"`
	SMTPPassword string `json:"smtp_password" yaml:"smtp_password"`

	ConfirmEmailURL  string `json:"confirm_email_url" yaml:"confirm_email_url"`
	ResetPasswordURL string `json:"reset_password_url" yaml:"reset_password_url"`

	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	SpotifyClientID     string         `json:"spotify_client_id" yaml:"spotify_client_id"`
	SpotifyClientSecret string         `json:"spotify_client_secret" yaml:"spotify_client_secret"`
	SpotifyRedirectURL  string         `json:"spotify_redirect_url" yaml:"spotify_redirect_url"`
	SpotifyScopes       []string       `json:"spotify_scopes" yaml:"spotify_scopes"`
	SpotifyTokenKey     string         `json:"spotify_token_key" yaml:"spotify_token_key"`
	SpotifyTokenTTL     timex.Duration `json:"spotify_token_ttl" yaml:"spotify_token_ttl"`

	BadgerDir     string `json:"badger_dir" yaml:"badger_dir"`
	MaxUploadSize int64  `json:"max_upload_size" yaml:"max_upload_size"`

	AdminEmail    string `json:"admin_email" yaml:"admin_email"`
	AdminUserName string `json:"admin_user_name" yaml:"admin_user_name"`
	AdminPassword string `json:"admin_password" yaml:"admin_password"`
}

// parseFile overlays config with the file named by -c/-config (or the
// RUSTYTECH_CONFIG env var). Files ending in .yaml or .yml are decoded as
// YAML, anything else as JSON. Unreadable or malformed files panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogBackend, c.LogBackend)

	setString(&config.SecretKey, c.SecretKey)
	setString(&config.JWTIssuer, c.JWTIssuer)
	setString(&config.JWTAudience, c.JWTAudience)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)

	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)

	setString(&config.ConfirmEmailURL, c.ConfirmEmailURL)
	setString(&config.ResetPasswordURL, c.ResetPasswordURL)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.SpotifyClientID, c.SpotifyClientID)
	setString(&config.SpotifyClientSecret, c.SpotifyClientSecret)
	setString(&config.SpotifyRedirectURL, c.SpotifyRedirectURL)
	if len(c.SpotifyScopes) > 0 {
		config.SpotifyScopes = c.SpotifyScopes
	}
	setString(&config.SpotifyTokenKey, c.SpotifyTokenKey)
	setDuration(&config.SpotifyTokenTTL, c.SpotifyTokenTTL)

	setString(&config.BadgerDir, c.BadgerDir)
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}

	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminUserName, c.AdminUserName)
	setString(&config.AdminPassword, c.AdminPassword)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
