package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/mail"
)

// ErrConfiguration marks a configuration the monitor cannot start with.
var ErrConfiguration = errors.New("invalid configuration")

// Config defines monitor configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Source    SourceConfig    `yaml:"source"`
	Policy    PolicyConfig    `yaml:"policy"`
	Mail      MailConfig      `yaml:"mail"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
	// User acts for MCP sessions that are not authenticated, including
	// every stdio session.
	User string `yaml:"user"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SnapshotConfig locates the SQLite snapshot database.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig locates the platform's PostgreSQL database.
type SourceConfig struct {
	URL string `yaml:"url"`
}

type PolicyConfig struct {
	InactivityDays  int  `yaml:"inactivity_days"`
	CountWindowDays int  `yaml:"count_window_days"`
	DenseIDs        bool `yaml:"dense_ids"`
}

type MailConfig struct {
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	Username      string  `yaml:"username"`
	Password      string  `yaml:"password"`
	From          string  `yaml:"from"`
	ProjectURL    string  `yaml:"project_url"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type ScheduleConfig struct {
	// Interval between cycles in serve mode. Zero disables the scheduler.
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used before any file or environment
// overrides.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Snapshot: SnapshotConfig{
			Path: "projmon.db",
		},
		Policy: PolicyConfig{
			InactivityDays:  365,
			CountWindowDays: 90,
			DenseIDs:        true,
		},
		Mail: MailConfig{
			Port:          587,
			From:          "noreply@localhost",
			ProjectURL:    "http://localhost/projects/",
			RatePerSecond: 2,
			Burst:         1,
		},
		Schedule: ScheduleConfig{
			Interval: 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from .env, an optional YAML file and environment
// variables, in that order of increasing precedence.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path := os.Getenv("PROJMON_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv sets variables from path without overriding the environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("PROJMON_SERVER_HOST", &cfg.Server.Host)
	str("PROJMON_TRANSPORT_MODE", &cfg.Transport.Mode)
	str("PROJMON_TRANSPORT_USER", &cfg.Transport.User)
	str("PROJMON_SNAPSHOT_PATH", &cfg.Snapshot.Path)
	str("DATABASE_URL", &cfg.Source.URL)
	str("PROJMON_SOURCE_URL", &cfg.Source.URL)
	str("PROJMON_MAIL_HOST", &cfg.Mail.Host)
	str("PROJMON_MAIL_USERNAME", &cfg.Mail.Username)
	str("PROJMON_MAIL_PASSWORD", &cfg.Mail.Password)
	str("PROJMON_MAIL_FROM", &cfg.Mail.From)
	str("PROJMON_PROJECT_URL", &cfg.Mail.ProjectURL)
	str("PROJMON_LOG_LEVEL", &cfg.Log.Level)

	for key, dst := range map[string]*int{
		"PROJMON_SERVER_PORT":       &cfg.Server.Port,
		"PROJMON_MAIL_PORT":         &cfg.Mail.Port,
		"PROJMON_INACTIVITY_DAYS":   &cfg.Policy.InactivityDays,
		"PROJMON_COUNT_WINDOW_DAYS": &cfg.Policy.CountWindowDays,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*bool{
		"PROJMON_AUTH_ENABLED": &cfg.Auth.Enabled,
		"PROJMON_DENSE_IDS":    &cfg.Policy.DenseIDs,
	} {
		if err := flag(key, dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("PROJMON_SCHEDULE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PROJMON_SCHEDULE_INTERVAL: %w", err)
		}
		cfg.Schedule.Interval = d
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate reports every problem that would stop the monitor from running.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Snapshot.Path) == "" {
		problems = append(problems, "snapshot.path is required")
	}
	if c.Transport.Mode != "http" && c.Transport.Mode != "stdio" {
		problems = append(problems, fmt.Sprintf("transport.mode must be http or stdio, got %q", c.Transport.Mode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Policy.InactivityDays <= 0 {
		problems = append(problems, "policy.inactivity_days must be positive")
	}
	if c.Policy.CountWindowDays <= 0 {
		problems = append(problems, "policy.count_window_days must be positive")
	}
	if c.Schedule.Interval < 0 {
		problems = append(problems, "schedule.interval must not be negative")
	}
	if c.Mail.Host != "" && strings.TrimSpace(c.Mail.From) == "" {
		problems = append(problems, "mail.from is required when mail.host is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// RequireSource reports whether the platform database is configured.
// Reconciliation cannot run without it.
func (c Config) RequireSource() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("%w: source.url (or DATABASE_URL) is required", ErrConfiguration)
	}
	return nil
}

// LifecyclePolicy converts the policy section.
func (p PolicyConfig) LifecyclePolicy() lifecycle.Policy {
	day := 24 * time.Hour
	return lifecycle.Policy{
		InactivityPeriod: time.Duration(p.InactivityDays) * day,
		CountWindow:      time.Duration(p.CountWindowDays) * day,
	}
}

// Sender converts the mail section to sender settings.
func (m MailConfig) Sender() mail.Config {
	return mail.Config{
		Host:          m.Host,
		Port:          m.Port,
		Username:      m.Username,
		Password:      m.Password,
		RatePerSecond: m.RatePerSecond,
		Burst:         m.Burst,
	}
}
