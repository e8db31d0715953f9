package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Feed modes for the server monitor.
const (
	FeedPoll   = "poll"
	FeedStream = "stream"
)

const (
	defaultConfigPath     = "~/.config/nezhatop/config.toml"
	defaultLogFile        = "~/.local/state/nezhatop/nezhatop.log"
	defaultHistoryPath    = "~/.local/state/nezhatop/history.db"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultRetention      = 24 * time.Hour
	defaultLogLevel       = "info"
)

// Duration reads TOML strings such as "5s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if value == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings is the persisted dashboard and client configuration.
type Settings struct {
	Host           string          `toml:"host"`
	TLS            bool            `toml:"tls"`
	Token          string          `toml:"token,omitempty"`
	Username       string          `toml:"username,omitempty"`
	Password       string          `toml:"password,omitempty"`
	PollInterval   Duration        `toml:"poll_interval"`
	RequestTimeout Duration        `toml:"request_timeout"`
	Feed           string          `toml:"feed"`
	LastModified   time.Time       `toml:"last_modified"`
	Log            LogSettings     `toml:"log"`
	History        HistorySettings `toml:"history"`
}

// LogSettings controls the zap logger.
type LogSettings struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// HistorySettings controls the local sample history database.
type HistorySettings struct {
	Enabled   bool     `toml:"enabled"`
	Path      string   `toml:"path"`
	Retention Duration `toml:"retention"`
}

// Overrides holds values from command-line flags. Zero values are "not set".
type Overrides struct {
	Host         string
	TLS          *bool
	Token        string
	Username     string
	Password     string
	PollInterval time.Duration
	Feed         string
	LogLevel     string
}

// Defaults returns settings with every optional field populated.
func Defaults() Settings {
	return Settings{
		PollInterval:   Duration{defaultPollInterval},
		RequestTimeout: Duration{defaultRequestTimeout},
		Feed:           FeedPoll,
		Log: LogSettings{
			Level: defaultLogLevel,
			File:  mustExpand(defaultLogFile),
		},
		History: HistorySettings{
			Enabled:   true,
			Path:      mustExpand(defaultHistoryPath),
			Retention: Duration{defaultRetention},
		},
	}
}

// DefaultPath returns the expanded default settings path.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// Load reads the settings file, falling back to defaults when it is missing.
func Load(path string) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Settings{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// LoadLayered applies, in increasing precedence: defaults, the settings file,
// NEZHA_* environment variables and CLI overrides.
func LoadLayered(path string, cli Overrides) (Settings, error) {
	cfg, err := Load(path)
	if err != nil {
		return Settings{}, err
	}
	applyEnvOverrides(&cfg)
	cli.apply(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes settings to path, stamping LastModified.
func Save(path string, cfg Settings) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Settings{}, fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return Settings{}, fmt.Errorf("create config dir: %w", err)
	}

	cfg.LastModified = time.Now().UTC().Truncate(time.Second)
	bytes, err := toml.Marshal(cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("marshal config: %w", err)
	}
	// Credentials live in this file.
	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return Settings{}, fmt.Errorf("write config: %w", err)
	}
	return cfg, nil
}

// Reconcile picks between two copies of the same settings by LastModified.
// Ties keep local.
func Reconcile(local, remote Settings) Settings {
	if remote.LastModified.After(local.LastModified) {
		return remote
	}
	return local
}

func (c *Settings) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	c.Token = strings.TrimSpace(c.Token)
	c.Username = strings.TrimSpace(c.Username)

	if c.PollInterval.Duration <= 0 {
		c.PollInterval = Duration{defaultPollInterval}
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = Duration{defaultRequestTimeout}
	}

	switch strings.ToLower(strings.TrimSpace(c.Feed)) {
	case FeedStream:
		c.Feed = FeedStream
	default:
		c.Feed = FeedPoll
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Log.File) == "" {
		c.Log.File = defaultLogFile
	}
	c.Log.File = mustExpand(c.Log.File)

	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	c.History.Path = mustExpand(c.History.Path)
	if c.History.Retention.Duration <= 0 {
		c.History.Retention = Duration{defaultRetention}
	}
}

func applyEnvOverrides(cfg *Settings) {
	if host := os.Getenv("NEZHA_HOST"); host != "" {
		cfg.Host = host
	}
	if raw := os.Getenv("NEZHA_TLS"); raw != "" {
		if tls, err := strconv.ParseBool(raw); err == nil {
			cfg.TLS = tls
		}
	}
	if token := os.Getenv("NEZHA_TOKEN"); token != "" {
		cfg.Token = token
	}
	if username := os.Getenv("NEZHA_USERNAME"); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("NEZHA_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if level := os.Getenv("NEZHA_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func (o Overrides) apply(cfg *Settings) {
	if o.Host != "" {
		cfg.Host = o.Host
	}
	if o.TLS != nil {
		cfg.TLS = *o.TLS
	}
	if o.Token != "" {
		cfg.Token = o.Token
	}
	if o.Username != "" {
		cfg.Username = o.Username
	}
	if o.Password != "" {
		cfg.Password = o.Password
	}
	if o.PollInterval > 0 {
		cfg.PollInterval = Duration{o.PollInterval}
	}
	if o.Feed != "" {
		cfg.Feed = o.Feed
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
