package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_S3_BUCKET", "gallery-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "", cfg.BasePath)
	require.Equal(t, 3600, cfg.TokenTTLSeconds)
	require.Equal(t, time.Hour, cfg.TokenTTL())
	require.Equal(t, TokenCodecOpaque, cfg.TokenCodec)
	require.Equal(t, TokenStorePostgres, cfg.TokenStore)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.False(t, cfg.Debug)
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_PATH", "/be/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TOKEN_EXPIRY", "120")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("TOKEN_STORE", "Memory")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/be", cfg.BasePath)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, 2*time.Minute, cfg.TokenTTL())
	require.True(t, cfg.Debug)
	require.Equal(t, TokenStoreMemory, cfg.TokenStore)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:        "8080",
			TokenTTLSeconds:   3600,
			TokenCodec:        TokenCodecOpaque,
			TokenStore:        TokenStorePostgres,
			BcryptCost:        10,
			S3Bucket:          "bucket",
			PresignTTLSeconds: 3600,
			MaxUploadSize:     1024,
			RequestTimeout:    time.Second,
			Timezone:          "UTC",
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("jwt codec needs a secret", func(t *testing.T) {
		cfg := valid()
		cfg.TokenCodec = TokenCodecJWT
		require.ErrorContains(t, cfg.Validate(), "TOKEN_SECRET")

		cfg.TokenSecret = "s3cret"
		require.NoError(t, cfg.Validate())
	})

	t.Run("redis store needs a url", func(t *testing.T) {
		cfg := valid()
		cfg.TokenStore = TokenStoreRedis
		require.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})

	t.Run("rejects unknown codec", func(t *testing.T) {
		cfg := valid()
		cfg.TokenCodec = "paseto"
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects missing bucket", func(t *testing.T) {
		cfg := valid()
		cfg.S3Bucket = ""
		require.ErrorContains(t, cfg.Validate(), "AWS_S3_BUCKET")
	})

	t.Run("rejects bad timezone", func(t *testing.T) {
		cfg := valid()
		cfg.Timezone = "Mars/Olympus"
		require.Error(t, cfg.Validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	t.Parallel()

	t.Run("tcp host", func(t *testing.T) {
		cfg := &Config{DBHost: "db.internal", DBPort: 5433, DBName: "lumiere", DBUser: "app", DBPass: "p@ss", DBCharset: "UTF8", DBSSLMode: "disable"}

		parsed, err := url.Parse(cfg.DatabaseDSN())
		require.NoError(t, err)
		require.Equal(t, "db.internal:5433", parsed.Host)
		require.Equal(t, "/lumiere", parsed.Path)
		require.Equal(t, "app", parsed.User.Username())
		pass, _ := parsed.User.Password()
		require.Equal(t, "p@ss", pass)
		require.Equal(t, "UTF8", parsed.Query().Get("client_encoding"))
		require.Equal(t, "disable", parsed.Query().Get("sslmode"))
	})

	t.Run("socket file uses its directory", func(t *testing.T) {
		cfg := &Config{DBHost: "/var/run/postgresql/.s.PGSQL.5432", DBName: "lumiere", DBUser: "app", DBSSLMode: "disable"}

		parsed, err := url.Parse(cfg.DatabaseDSN())
		require.NoError(t, err)
		require.Equal(t, "", parsed.Host)
		require.Equal(t, "/var/run/postgresql", parsed.Query().Get("host"))
	})

	t.Run("socket directory is kept", func(t *testing.T) {
		cfg := &Config{DBHost: "/tmp", DBName: "lumiere", DBUser: "app", DBSSLMode: "disable"}

		parsed, err := url.Parse(cfg.DatabaseDSN())
		require.NoError(t, err)
		require.Equal(t, "/tmp", parsed.Query().Get("host"))
	})

	t.Run("explicit url wins", func(t *testing.T) {
		cfg := &Config{DatabaseURL: "postgres://u:p@h/db", DBHost: "ignored"}
		require.Equal(t, "postgres://u:p@h/db", cfg.DatabaseDSN())
	})
}

func TestNormalizeBasePath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", NormalizeBasePath("/"))
	require.Equal(t, "", NormalizeBasePath(""))
	require.Equal(t, "/be", NormalizeBasePath("be"))
	require.Equal(t, "/be/api", NormalizeBasePath("/be/api/"))
}
