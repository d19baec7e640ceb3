package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	DefaultServerName   = "kstScript"
	DefaultServerBinary = "kst2"
)

type Config struct {
	ServerName            string
	ServerBinary          string
	SocketDir             string
	AutoLaunch            bool
	OwnServer             bool
	ConnectAttemptTimeout time.Duration
	SettleDelay           time.Duration
	ConnectDeadline       time.Duration
	MaxConnectAttempts    int
	RetryMinBackoff       time.Duration
	RetryMaxBackoff       time.Duration
	CommandTimeout        time.Duration
	ReplyBufferSize       int
	DrainWindow           time.Duration
	ExchangeDir           string
	RegistryPath          string
	LogLevel              string
}

func DefaultConfig() Config {
	return Config{
		ServerName:            DefaultServerName,
		ServerBinary:          DefaultServerBinary,
		AutoLaunch:            true,
		ConnectAttemptTimeout: 300 * time.Millisecond,
		SettleDelay:           500 * time.Millisecond,
		ConnectDeadline:       30 * time.Second,
		RetryMinBackoff:       100 * time.Millisecond,
		RetryMaxBackoff:       2 * time.Second,
		CommandTimeout:        5 * time.Minute,
		ReplyBufferSize:       64 * 1024,
		DrainWindow:           10 * time.Millisecond,
		RegistryPath:          defaultRegistryPath(),
		LogLevel:              "info",
	}
}

// EndpointPath resolves the server name to a socket path. Absolute names
// are used as is; bare names live in the socket dir, which defaults to the
// system temp dir where the server publishes its local socket.
func (c Config) EndpointPath() string {
	if filepath.IsAbs(c.ServerName) {
		return c.ServerName
	}
	dir := c.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, c.ServerName)
}

// LaunchArgs are the arguments passed to ServerBinary when no server is
// listening.
func (c Config) LaunchArgs() []string {
	return []string{"--serverName=" + c.ServerName}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerName) == "" {
		return fmt.Errorf("config: server name is required")
	}
	if c.AutoLaunch && strings.TrimSpace(c.ServerBinary) == "" {
		return fmt.Errorf("config: server binary is required when auto launch is enabled")
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"connect_attempt_timeout", c.ConnectAttemptTimeout},
		{"connect_deadline", c.ConnectDeadline},
		{"retry_min_backoff", c.RetryMinBackoff},
		{"retry_max_backoff", c.RetryMaxBackoff},
		{"command_timeout", c.CommandTimeout},
		{"drain_window", c.DrainWindow},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", d.name, d.d)
		}
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("config: settle_delay must not be negative")
	}
	if c.RetryMaxBackoff < c.RetryMinBackoff {
		return fmt.Errorf("config: retry_max_backoff %s below retry_min_backoff %s", c.RetryMaxBackoff, c.RetryMinBackoff)
	}
	if c.MaxConnectAttempts < 0 {
		return fmt.Errorf("config: max_connect_attempts must not be negative")
	}
	if c.ReplyBufferSize <= 0 {
		return fmt.Errorf("config: reply_buffer_size must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewLogger returns a text logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}

// fileConfig mirrors Config for YAML decoding. Durations are Go duration
// strings ("300ms", "5m").
type fileConfig struct {
	ServerName            *string `yaml:"server_name"`
	ServerBinary          *string `yaml:"server_binary"`
	SocketDir             *string `yaml:"socket_dir"`
	AutoLaunch            *bool   `yaml:"auto_launch"`
	OwnServer             *bool   `yaml:"own_server"`
	ConnectAttemptTimeout string  `yaml:"connect_attempt_timeout"`
	SettleDelay           string  `yaml:"settle_delay"`
	ConnectDeadline       string  `yaml:"connect_deadline"`
	MaxConnectAttempts    *int    `yaml:"max_connect_attempts"`
	RetryMinBackoff       string  `yaml:"retry_min_backoff"`
	RetryMaxBackoff       string  `yaml:"retry_max_backoff"`
	CommandTimeout        string  `yaml:"command_timeout"`
	ReplyBufferSize       *int    `yaml:"reply_buffer_size"`
	DrainWindow           string  `yaml:"drain_window"`
	ExchangeDir           *string `yaml:"exchange_dir"`
	RegistryPath          *string `yaml:"registry_path"`
	LogLevel              *string `yaml:"log_level"`
}

// Load overlays the YAML file at path (if non-empty) and the KST_*
// environment variables on DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode applies a YAML document on top of cfg. Absent keys keep their
// current values.
func Decode(data []byte, cfg *Config) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	setString(&cfg.ServerName, fc.ServerName)
	setString(&cfg.ServerBinary, fc.ServerBinary)
	setString(&cfg.SocketDir, fc.SocketDir)
	setString(&cfg.ExchangeDir, fc.ExchangeDir)
	setString(&cfg.RegistryPath, fc.RegistryPath)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.AutoLaunch != nil {
		cfg.AutoLaunch = *fc.AutoLaunch
	}
	if fc.OwnServer != nil {
		cfg.OwnServer = *fc.OwnServer
	}
	if fc.MaxConnectAttempts != nil {
		cfg.MaxConnectAttempts = *fc.MaxConnectAttempts
	}
	if fc.ReplyBufferSize != nil {
		cfg.ReplyBufferSize = *fc.ReplyBufferSize
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_attempt_timeout", fc.ConnectAttemptTimeout, &cfg.ConnectAttemptTimeout},
		{"settle_delay", fc.SettleDelay, &cfg.SettleDelay},
		{"connect_deadline", fc.ConnectDeadline, &cfg.ConnectDeadline},
		{"retry_min_backoff", fc.RetryMinBackoff, &cfg.RetryMinBackoff},
		{"retry_max_backoff", fc.RetryMaxBackoff, &cfg.RetryMaxBackoff},
		{"command_timeout", fc.CommandTimeout, &cfg.CommandTimeout},
		{"drain_window", fc.DrainWindow, &cfg.DrainWindow},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KST_SERVER_NAME"); v != "" {
		cfg.ServerName = v
	}
	if v := os.Getenv("KST_SERVER_BIN"); v != "" {
		cfg.ServerBinary = v
	}
	if v, ok := os.LookupEnv("KST_REGISTRY"); ok {
		cfg.RegistryPath = v
	}
}

func defaultRegistryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "kstclient", "handles.db")
}
