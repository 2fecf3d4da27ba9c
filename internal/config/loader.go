package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ROOMBOOK_"

// Config captures the runtime settings of the booking service.
type Config struct {
	HTTPAddr         string        `yaml:"http_addr"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	SessionCacheSize int           `yaml:"session_cache_size"`
	RedisURL         string        `yaml:"redis_url"`
	PasswordScheme   string        `yaml:"password_scheme"`
	SeedFile         string        `yaml:"seed_file"`
	Seed             bool          `yaml:"seed"`
	Timezone         string        `yaml:"timezone"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	SecureCookies    bool          `yaml:"secure_cookies"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		SQLiteDSN:        "roombook.db",
		SessionTTL:       8 * time.Hour,
		SessionCacheSize: 1024,
		PasswordScheme:   "argon2id",
		Seed:             true,
		Timezone:         "UTC",
		LogLevel:         "info",
		LogFormat:        "json",
		ShutdownTimeout:  10 * time.Second,
	}
}

// Location resolves the configured time zone. Zone-less timestamps in
// requests are interpreted in it.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load builds the configuration from, in increasing precedence: defaults, an
// optional .env file, an optional YAML file, ROOMBOOK_* environment variables
// and command-line flags. All invalid values are reported together.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("roombook", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML configuration file")
	envFile := flags.String("env-file", ".env", "path to a dotenv file; a missing file is ignored")

	fromFlags := Default()
	flags.StringVar(&fromFlags.HTTPAddr, "http-addr", fromFlags.HTTPAddr, "HTTP listen address")
	flags.StringVar(&fromFlags.SQLiteDSN, "sqlite-dsn", fromFlags.SQLiteDSN, "SQLite database path or file: URI")
	flags.DurationVar(&fromFlags.SessionTTL, "session-ttl", fromFlags.SessionTTL, "session lifetime")
	flags.IntVar(&fromFlags.SessionCacheSize, "session-cache-size", fromFlags.SessionCacheSize, "in-memory session cache entries (0 disables)")
	flags.StringVar(&fromFlags.RedisURL, "redis-url", fromFlags.RedisURL, "redis URL for the session store (empty uses SQLite)")
	flags.StringVar(&fromFlags.PasswordScheme, "password-scheme", fromFlags.PasswordScheme, "password hashing scheme: argon2id or bcrypt")
	flags.StringVar(&fromFlags.SeedFile, "seed-file", fromFlags.SeedFile, "YAML seed file (empty uses the built-in data)")
	flags.BoolVar(&fromFlags.Seed, "seed", fromFlags.Seed, "seed an empty database on startup")
	flags.StringVar(&fromFlags.Timezone, "timezone", fromFlags.Timezone, "time zone for zone-less timestamps")
	flags.StringVar(&fromFlags.LogLevel, "log-level", fromFlags.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&fromFlags.LogFormat, "log-format", fromFlags.LogFormat, "log format: json or text")
	flags.DurationVar(&fromFlags.ShutdownTimeout, "shutdown-timeout", fromFlags.ShutdownTimeout, "graceful shutdown timeout")
	flags.BoolVar(&fromFlags.SecureCookies, "secure-cookies", fromFlags.SecureCookies, "mark session cookies Secure")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadDotenv(*envFile); err != nil {
		return Config{}, err
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG"))
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	var invalid []string
	cfg.applyEnvironment(&invalid)

	flags.Visit(func(f *pflag.Flag) {
		cfg.applyFlag(f.Name, fromFlags)
	})

	invalid = append(invalid, cfg.validate()...)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironment(invalid *[]string) {
	envString("HTTP_ADDR", &c.HTTPAddr)
	envString("SQLITE_DSN", &c.SQLiteDSN)
	envDuration("SESSION_TTL", &c.SessionTTL, invalid)
	envInt("SESSION_CACHE_SIZE", &c.SessionCacheSize, invalid)
	envString("REDIS_URL", &c.RedisURL)
	envString("PASSWORD_SCHEME", &c.PasswordScheme)
	envString("SEED_FILE", &c.SeedFile)
	envBool("SEED", &c.Seed, invalid)
	envString("TIMEZONE", &c.Timezone)
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	envDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, invalid)
	envBool("SECURE_COOKIES", &c.SecureCookies, invalid)
}

func (c *Config) applyFlag(name string, from Config) {
	switch name {
	case "http-addr":
		c.HTTPAddr = from.HTTPAddr
	case "sqlite-dsn":
		c.SQLiteDSN = from.SQLiteDSN
	case "session-ttl":
		c.SessionTTL = from.SessionTTL
	case "session-cache-size":
		c.SessionCacheSize = from.SessionCacheSize
	case "redis-url":
		c.RedisURL = from.RedisURL
	case "password-scheme":
		c.PasswordScheme = from.PasswordScheme
	case "seed-file":
		c.SeedFile = from.SeedFile
	case "seed":
		c.Seed = from.Seed
	case "timezone":
		c.Timezone = from.Timezone
	case "log-level":
		c.LogLevel = from.LogLevel
	case "log-format":
		c.LogFormat = from.LogFormat
	case "shutdown-timeout":
		c.ShutdownTimeout = from.ShutdownTimeout
	case "secure-cookies":
		c.SecureCookies = from.SecureCookies
	}
}

func (c Config) validate() []string {
	var invalid []string
	if strings.TrimSpace(c.HTTPAddr) == "" {
		invalid = append(invalid, "http_addr")
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		invalid = append(invalid, "sqlite_dsn")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "session_ttl")
	}
	if c.SessionCacheSize < 0 {
		invalid = append(invalid, "session_cache_size")
	}
	switch strings.ToLower(c.PasswordScheme) {
	case "argon2id", "bcrypt":
	default:
		invalid = append(invalid, "password_scheme")
	}
	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "timezone")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		invalid = append(invalid, "log_level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}
	if c.ShutdownTimeout <= 0 {
		invalid = append(invalid, "shutdown_timeout")
	}
	return invalid
}

func envString(key string, target *string) {
	if value := strings.TrimSpace(os.Getenv(EnvPrefix + key)); value != "" {
		*target = value
	}
}

func envDuration(key string, target *time.Duration, invalid *[]string) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*invalid = append(*invalid, EnvPrefix+key)
		return
	}
	*target = d
}

func envInt(key string, target *int, invalid *[]string) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*invalid = append(*invalid, EnvPrefix+key)
		return
	}
	*target = n
}

func envBool(key string, target *bool, invalid *[]string) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*invalid = append(*invalid, EnvPrefix+key)
		return
	}
	*target = b
}
