package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrMissingSetting        = errors.New("missing required setting")
	ErrInvalidSetting        = errors.New("invalid setting")
)

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"TELEGRAM_BOT_TOKEN":     "telegram.token",
	"CHATGPT_API_KEY":        "openai.api_key",
	"CHATGPT_BASE_URL":       "openai.base_url",
	"CHATGPT_MODEL":          "openai.model",
	"DATABASE_URL":           "postgresql.url",
	"DB_POOL_MIN_SIZE":       "postgresql.max_idle_conns",
	"DB_POOL_MAX_SIZE":       "postgresql.max_open_conns",
	"LOG_LEVEL":              "debug.log_level",
	"REDIS_HOST":             "redis.host",
	"REDIS_PORT":             "redis.port",
	"REDIS_USERNAME":         "redis.username",
	"REDIS_PASSWORD":         "redis.password",
	"DEFAULT_REQUIRED_USERS": "gate.default_required",
	"BOT_LANGUAGE":           "gate.language",
}

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	Telegram       Telegram       `koanf:"telegram"`
	PostgreSQL     PostgreSQL     `koanf:"postgresql"`
	Redis          Redis          `koanf:"redis"`
	OpenAI         OpenAI         `koanf:"openai"`
	Gate           Gate           `koanf:"gate"`
	Retry          Retry          `koanf:"retry"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	Retention      Retention      `koanf:"retention"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Telegram contains Bot API configuration.
type Telegram struct {
	// Bot token issued by BotFather.
	Token string `koanf:"token"`
	// Long polling timeout in seconds.
	PollTimeout int `koanf:"poll_timeout"`
	// Maximum updates handled concurrently.
	MaxConcurrentUpdates int `koanf:"max_concurrent_updates"`
	// Log raw Bot API traffic.
	Debug bool `koanf:"debug"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Connection URL. Takes precedence over the discrete fields.
	URL string `koanf:"url"`
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration. An empty host disables Redis.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Enabled reports whether a Redis server is configured.
func (r Redis) Enabled() bool {
	return r.Host != ""
}

// OpenAI contains chat-completion API configuration.
type OpenAI struct {
	// Base URL for the API.
	BaseURL string `koanf:"base_url"`
	// API key for authentication.
	APIKey string `koanf:"api_key"`
	// Model used for replies.
	Model string `koanf:"model"`
	// System prompt sent before the conversation.
	SystemPrompt string `koanf:"system_prompt"`
	// Maximum concurrent requests.
	MaxConcurrent int64 `koanf:"max_concurrent"`
	// Request timeout in seconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Maximum completion tokens per reply.
	MaxTokens int64 `koanf:"max_tokens"`
	// Number of previous turns sent as context.
	HistoryLimit int `koanf:"history_limit"`
	// Replies allowed per member within the reply window. Zero disables the limit.
	ReplyLimit int `koanf:"reply_limit"`
	// Reply window in seconds.
	ReplyWindow int `koanf:"reply_window"`
}

// Gate contains invite gate configuration.
type Gate struct {
	// Threshold for groups without explicit settings.
	DefaultRequired int `koanf:"default_required"`
	// Language of member-facing texts.
	Language string `koanf:"language"`
}

// Retry contains retry configuration for assistant calls.
type Retry struct {
	// Maximum attempts including the first one.
	MaxAttempts uint64 `koanf:"max_attempts"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
	// Maximum total retry time in milliseconds.
	MaxElapsed int `koanf:"max_elapsed"`
	// Randomization factor applied to each delay.
	Jitter float64 `koanf:"jitter"`
}

// CircuitBreaker contains circuit breaker configuration.
type CircuitBreaker struct {
	// Maximum number of requests allowed to pass through when the circuit is half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// The cyclic period of the closed state for the circuit breaker to clear the internal counts, in seconds.
	Interval int `koanf:"interval"`
	// The period of the open state after which the state of the circuit breaker becomes half-open, in seconds.
	Timeout int `koanf:"timeout"`
}

// Retention contains conversation history retention configuration.
type Retention struct {
	// Days a conversation turn is kept.
	Days int `koanf:"days"`
	// Hours between sweeps.
	SweepInterval int `koanf:"sweep_interval"`
}

// defaults returns the configuration used when neither file nor environment set a key.
func defaults() map[string]any {
	return map[string]any{
		"version":                         CurrentVersion,
		"debug.log_level":                 "info",
		"debug.max_logs_to_keep":          10,
		"debug.max_log_lines":             100000,
		"telegram.poll_timeout":           60,
		"telegram.max_concurrent_updates": 32,
		"postgresql.port":                 5432,
		"postgresql.max_open_conns":       20,
		"postgresql.max_idle_conns":       5,
		"postgresql.max_lifetime":         30,
		"postgresql.max_idle_time":        5,
		"redis.port":                      6379,
		"openai.base_url":                 "https://api.openai.com/v1/",
		"openai.model":                    "gpt-4o-mini",
		"openai.max_concurrent":           4,
		"openai.request_timeout":          60,
		"openai.max_tokens":               512,
		"openai.history_limit":            10,
		"openai.reply_limit":              20,
		"openai.reply_window":             3600,
		"gate.default_required":           5,
		"gate.language":                   "uz",
		"retry.max_attempts":              3,
		"retry.delay":                     1000,
		"retry.max_delay":                 8000,
		"retry.max_elapsed":               30000,
		"retry.jitter":                    0.5,
		"circuit_breaker.max_requests":    1,
		"circuit_breaker.interval":        60,
		"circuit_breaker.timeout":         30,
		"retention.days":                  7,
		"retention.sweep_interval":        24,
	}
}

// LoadConfig loads the configuration from defaults, an optional TOML file
// and the environment, in increasing order of precedence. An empty path
// searches the default config locations. It returns the config and the
// path of the file that was used, if any.
func LoadConfig(path string) (*Config, string, error) {
	cfg, usedPath, err := load(path)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, usedPath, nil
}

// LoadDatabaseConfig loads the configuration like LoadConfig but only
// requires the database settings, for maintenance tools.
func LoadDatabaseConfig(path string) (*Config, string, error) {
	cfg, usedPath, err := load(path)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.ValidateDatabase(); err != nil {
		return nil, "", err
	}

	return cfg, usedPath, nil
}

func load(path string) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	usedPath, err := loadFile(k, path)
	if err != nil {
		return nil, "", err
	}

	if err := k.Load(env.ProviderWithValue("", ".", mapEnv), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, usedPath, nil
}

// loadFile merges the config file into k. A missing file in the default
// locations is not an error, but an explicitly requested one is.
func loadFile(k *koanf.Koanf, path string) (string, error) {
	candidates := []string{path}
	if path == "" {
		candidates = searchPaths()
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			if path != "" {
				return "", fmt.Errorf("failed to read config file: %w", err)
			}
			continue
		}

		fk := koanf.New(".")
		if err := fk.Load(file.Provider(candidate), toml.Parser()); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", candidate, err)
		}

		if err := checkConfigVersion(candidate, fk.Int("version")); err != nil {
			return "", err
		}

		if err := k.Merge(fk); err != nil {
			return "", fmt.Errorf("failed to merge config file %s: %w", candidate, err)
		}

		return candidate, nil
	}

	return "", nil
}

// searchPaths returns the default config file locations in lookup order.
func searchPaths() []string {
	paths := []string{".invitegate/config.toml"}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, homeDir+"/.invitegate/config.toml")
	}

	return append(paths,
		"/etc/invitegate/config.toml",
		"/app/config/config.toml",
		"config/config.toml",
		"config.toml",
	)
}

// mapEnv translates a known environment variable into its config key.
// Unknown variables are ignored.
func mapEnv(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok {
		return "", nil
	}

	if key == "debug.log_level" {
		value = strings.ToLower(value)
		if value == "warning" {
			value = "warn"
		}
	}

	return key, value
}

func checkConfigVersion(name string, current int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, name)
	}

	if current != CurrentVersion {
		return fmt.Errorf("%w: %s (got: %d, expected: %d)",
			ErrConfigVersionMismatch, name, current, CurrentVersion)
	}

	return nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", ErrMissingSetting))
	}

	if c.OpenAI.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: CHATGPT_API_KEY", ErrMissingSetting))
	}

	if c.Gate.DefaultRequired < 1 || c.Gate.DefaultRequired > 20 {
		errs = append(errs, fmt.Errorf("%w: gate.default_required must be between 1 and 20 (got %d)",
			ErrInvalidSetting, c.Gate.DefaultRequired))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: retry.max_attempts must be at least 1", ErrInvalidSetting))
	}

	if c.Retention.Days < 1 || c.Retention.SweepInterval < 1 {
		errs = append(errs, fmt.Errorf("%w: retention days and sweep interval must be positive", ErrInvalidSetting))
	}

	errs = append(errs, c.ValidateDatabase())

	return errors.Join(errs...)
}

// ValidateDatabase reports missing or invalid database settings.
func (c *Config) ValidateDatabase() error {
	var errs []error

	if c.PostgreSQL.URL == "" && c.PostgreSQL.Host == "" {
		errs = append(errs, fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting))
	}

	if c.PostgreSQL.MaxIdleConns > c.PostgreSQL.MaxOpenConns {
		errs = append(errs, fmt.Errorf("%w: DB_POOL_MIN_SIZE (%d) exceeds DB_POOL_MAX_SIZE (%d)",
			ErrInvalidSetting, c.PostgreSQL.MaxIdleConns, c.PostgreSQL.MaxOpenConns))
	}

	return errors.Join(errs...)
}
