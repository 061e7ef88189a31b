package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	TokenCodecOpaque = "opaque"
	TokenCodecJWT    = "jwt"

	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
	TokenStoreMemory   = "memory"
)

type Config struct {
	ServerPort              string        `env:"SERVER_PORT" envDefault:"8080"`
	ServerReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ServerWriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	ServerIdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	RequestTimeout          time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	BasePath   string `env:"BASE_PATH" envDefault:"/"`
	APIVersion string `env:"API_VERSION" envDefault:"v1"`
	Debug      bool   `env:"DEBUG_MODE" envDefault:"false"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"pretty"`
	Timezone   string `env:"TIMEZONE" envDefault:"UTC"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort      int    `env:"DB_PORT" envDefault:"5432"`
	DBName      string `env:"DB_NAME" envDefault:"lumiere"`
	DBUser      string `env:"DB_USER" envDefault:"lumiere"`
	DBPass      string `env:"DB_PASS"`
	DBCharset   string `env:"DB_CHARSET" envDefault:"UTF8"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	TokenTTLSeconds int    `env:"TOKEN_EXPIRY" envDefault:"3600"`
	TokenCodec      string `env:"TOKEN_CODEC" envDefault:"opaque"`
	TokenSecret     string `env:"TOKEN_SECRET"`
	TokenStore      string `env:"TOKEN_STORE" envDefault:"postgres"`
	RedisURL        string `env:"REDIS_URL"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"12"`

	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPM     int      `env:"RATE_LIMIT_RPM" envDefault:"300"`
	AuthRateLimitRPM int      `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Bucket           string `env:"AWS_S3_BUCKET"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	S3UsePathStyle     bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	PresignTTLSeconds  int    `env:"PRESIGN_TTL" envDefault:"3600"`
	MaxUploadSize      int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.BasePath = NormalizeBasePath(c.BasePath)
	c.TokenCodec = strings.ToLower(strings.TrimSpace(c.TokenCodec))
	c.TokenStore = strings.ToLower(strings.TrimSpace(c.TokenStore))

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerPort) == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be positive")
	}

	switch c.TokenCodec {
	case TokenCodecOpaque:
	case TokenCodecJWT:
		if strings.TrimSpace(c.TokenSecret) == "" {
			return fmt.Errorf("TOKEN_SECRET is required when TOKEN_CODEC=jwt")
		}
	default:
		return fmt.Errorf("TOKEN_CODEC must be one of opaque, jwt")
	}

	switch c.TokenStore {
	case TokenStorePostgres, TokenStoreMemory:
	case TokenStoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when TOKEN_STORE=redis")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be one of postgres, redis, memory")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if strings.TrimSpace(c.S3Bucket) == "" {
		return fmt.Errorf("AWS_S3_BUCKET is required")
	}

	if c.PresignTTLSeconds <= 0 {
		return fmt.Errorf("PRESIGN_TTL must be positive")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseDSN returns DATABASE_URL when set, otherwise a postgres URL built
// from the DB_* variables. A DB_HOST that looks like a filesystem path is
// treated as a unix socket.
func (c *Config) DatabaseDSN() string {
	if dsn := strings.TrimSpace(c.DatabaseURL); dsn != "" {
		return dsn
	}

	query := url.Values{}
	query.Set("sslmode", c.DBSSLMode)
	if c.DBCharset != "" {
		query.Set("client_encoding", c.DBCharset)
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPass),
		Path:   "/" + c.DBName,
	}

	if isSocketPath(c.DBHost) {
		socketDir := c.DBHost
		if !strings.HasSuffix(socketDir, "/") && (strings.Contains(filepath.Base(socketDir), ".sock") || strings.HasPrefix(filepath.Base(socketDir), ".s.PGSQL")) {
			socketDir = filepath.Dir(socketDir)
		}
		query.Set("host", socketDir)
	} else {
		dsn.Host = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	}

	dsn.RawQuery = query.Encode()
	return dsn.String()
}

// NormalizeBasePath returns "" for the root and "/prefix" (no trailing slash)
// otherwise.
func NormalizeBasePath(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

func isSocketPath(host string) bool {
	return strings.Contains(host, "/") || strings.Contains(host, ".sock")
}
