package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv(flagx.ConfigFileEnv, "")

	jsonPath := writeTempFile(t, "cfg.json", `{
		"http_addr": "www.example:9000",
		"database_dsn": "postgres://db",
		"access_token_validity_duration": "15m",
		"reset_token_validity_duration": 3600000000000,
		"smtp_port": 2525,
		"spotify_scopes": ["user-read-email"]
	}`)

	yamlPath := writeTempFile(t, "cfg.yaml", `
http_addr: ":7000"
log_backend: zap
spotify_client_id: client
spotify_token_ttl: 48h
max_upload_size: 1024
admin_email: root@rustytech.dev
admin_password: Adm1n!pass
`)

	t.Run("json overlays only present fields", func(t *testing.T) {
		os.Args = []string{"rustytech", "-config", jsonPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.ResetTokenValidityDuration)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, []string{"user-read-email"}, cfg.SpotifyScopes)
		assert.Equal(t, "secretKey", cfg.SecretKey, "default kept")
	})

	t.Run("yaml by extension", func(t *testing.T) {
		os.Args = []string{"rustytech", "-c", yamlPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, ":7000", cfg.HTTPAddr)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, "client", cfg.SpotifyClientID)
		assert.Equal(t, 48*time.Hour, cfg.SpotifyTokenTTL)
		assert.Equal(t, int64(1024), cfg.MaxUploadSize)
		assert.Equal(t, "root@rustytech.dev", cfg.AdminEmail)
		assert.Equal(t, "admin", cfg.AdminUserName, "default kept")
		assert.Equal(t, "Adm1n!pass", cfg.AdminPassword)
	})

	t.Run("no file leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"rustytech"}

		cfg := &Config{HTTPAddr: "defaults:1234"}
		parseFile(cfg)

		assert.Equal(t, &Config{HTTPAddr: "defaults:1234"}, cfg)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := writeTempFile(t, "bad.json", `{ this is not valid json`)
		os.Args = []string{"rustytech", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"rustytech", "-c", filepath.Join(t.TempDir(), "nope.yml")}

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
