package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvFileVar names the variable pointing at an optional dotenv file.
const EnvFileVar = "GAMENIGHT_ENV_FILE"

// Config captures the runtime configuration for the gamenight backend service.
type Config struct {
	AppPort      int    `env:"GAMENIGHT_PORT" envDefault:"8080"`
	DatabaseURL  string `env:"GAMENIGHT_DATABASE_URL"`
	MigrationDir string `env:"GAMENIGHT_MIGRATIONS" envDefault:"migrations"`
	SeedDir      string `env:"GAMENIGHT_SEEDS" envDefault:"seeds"`
	LogLevel     string `env:"GAMENIGHT_LOG_LEVEL" envDefault:"info"`

	FriendCacheTTL          time.Duration `env:"GAMENIGHT_FRIEND_CACHE_TTL" envDefault:"1m"`
	InvitationTTL           time.Duration `env:"GAMENIGHT_INVITATION_TTL" envDefault:"24h"`
	InvitationSweepInterval time.Duration `env:"GAMENIGHT_INVITATION_SWEEP_INTERVAL" envDefault:"1m"`

	RateLimit RateLimitConfig
	CORS      CORSConfig
	Archive   ArchiveConfig
}

// RateLimitConfig bounds how often a client may call mutating endpoints.
type RateLimitConfig struct {
	Requests int           `env:"GAMENIGHT_RATE_LIMIT_REQUESTS" envDefault:"30"`
	Window   time.Duration `env:"GAMENIGHT_RATE_LIMIT_WINDOW" envDefault:"1m"`
	Burst    int           `env:"GAMENIGHT_RATE_LIMIT_BURST" envDefault:"10"`

	// TrustedProxies holds addresses or CIDR ranges of reverse proxies whose
	// X-Forwarded-For header identifies the client. Empty trusts nobody.
	TrustedProxies []string `env:"GAMENIGHT_TRUSTED_PROXIES" envSeparator:","`
}

// TrustedPrefixes parses TrustedProxies. A bare address becomes a single-host
// prefix.
func (c RateLimitConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `env:"GAMENIGHT_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// ArchiveConfig points the session archiver at an S3-compatible bucket.
// Archiving is disabled when Bucket is empty.
type ArchiveConfig struct {
	Bucket    string `env:"GAMENIGHT_ARCHIVE_BUCKET"`
	Region    string `env:"GAMENIGHT_ARCHIVE_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"GAMENIGHT_ARCHIVE_ENDPOINT"`
	Prefix    string `env:"GAMENIGHT_ARCHIVE_PREFIX" envDefault:"sessions"`
	Workers   int    `env:"GAMENIGHT_ARCHIVE_WORKERS" envDefault:"1"`
	QueueSize int    `env:"GAMENIGHT_ARCHIVE_QUEUE_SIZE" envDefault:"16"`
}

// Enabled reports whether an archive bucket is configured.
func (c ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// Load reads configuration from environment variables, applying defaults for
// local development. Variables from the dotenv file named by GAMENIGHT_ENV_FILE
// (default ".env") are loaded first without overriding the environment.
func Load() (Config, error) {
	envFile := os.Getenv(EnvFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := cfg.RateLimit.TrustedPrefixes(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level converts LogLevel into a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
