package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file system locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	DBPath       string `toml:"db_path"`
	DocumentsDir string `toml:"documents_dir"`
	CatalogFile  string `toml:"catalog_file"`
	HolidayFile  string `toml:"holiday_file"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind                string `toml:"bind"`
	APIToken            string `toml:"api_token"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Calendar contains working-day settings.
type Calendar struct {
	WeekendDays []string `toml:"weekend_days"`
}

// Health contains RAG thresholds.
type Health struct {
	RedThresholdDays int `toml:"red_threshold_days"`
	AmberWindowDays  int `toml:"amber_window_days"`
}

// Notifications contains push and reminder settings.
type Notifications struct {
	NtfyURL                 string `toml:"ntfy_url"`
	RequestTimeoutSeconds   int    `toml:"request_timeout_seconds"`
	ReminderIntervalMinutes int    `toml:"reminder_interval_minutes"`
}

// Documents contains repository limits.
type Documents struct {
	MaxUploadMB int `toml:"max_upload_mb"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CLI contains command line defaults.
type CLI struct {
	User string `toml:"user"`
}

// Config encapsulates all configuration values for stagegate.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Calendar      Calendar      `toml:"calendar"`
	Health        Health        `toml:"health"`
	Notifications Notifications `toml:"notifications"`
	Documents     Documents     `toml:"documents"`
	Logging       Logging       `toml:"logging"`
	CLI           CLI           `toml:"cli"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{DataDir: "~/.local/share/stagegate"},
		Server: Server{
			Bind:                "127.0.0.1:8460",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Calendar: Calendar{WeekendDays: []string{"saturday", "sunday"}},
		Health:   Health{RedThresholdDays: 7, AmberWindowDays: 2},
		Notifications: Notifications{
			RequestTimeoutSeconds:   10,
			ReminderIntervalMinutes: 60,
		},
		Documents: Documents{MaxUploadMB: 25},
		Logging:   Logging{Level: "info", Format: "text"},
	}
}

// Load locates, parses, and validates a configuration file. The search order
// is path, $STAGEGATE_CONFIG, ~/.config/stagegate/config.toml, ./stagegate.toml.
// A missing file yields the defaults. $STAGEGATE_DB overrides the database path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("STAGEGATE_CONFIG")
	}
	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("STAGEGATE_DB")); v != "" {
		cfg.Paths.DBPath = v
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/stagegate/config.toml")
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("stagegate.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.DBPath == "" {
		c.Paths.DBPath = filepath.Join(c.Paths.DataDir, "stagegate.db")
	} else if c.Paths.DBPath != ":memory:" {
		if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
			return err
		}
	}
	if c.Paths.DocumentsDir == "" {
		c.Paths.DocumentsDir = filepath.Join(c.Paths.DataDir, "documents")
	} else if c.Paths.DocumentsDir, err = expandPath(c.Paths.DocumentsDir); err != nil {
		return err
	}
	if c.Paths.CatalogFile, err = expandPath(c.Paths.CatalogFile); err != nil {
		return err
	}
	if c.Paths.HolidayFile, err = expandPath(c.Paths.HolidayFile); err != nil {
		return err
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	c.Notifications.NtfyURL = strings.TrimSpace(c.Notifications.NtfyURL)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.CLI.User = strings.ToLower(strings.TrimSpace(c.CLI.User))
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := c.Weekend(); err != nil {
		return err
	}
	if c.Health.RedThresholdDays < 1 {
		return errors.New("health.red_threshold_days must be at least 1")
	}
	if c.Health.AmberWindowDays < 0 {
		return errors.New("health.amber_window_days must not be negative")
	}
	if c.Documents.MaxUploadMB < 1 {
		return errors.New("documents.max_upload_mb must be at least 1")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Weekend returns the configured non-working weekdays.
func (c *Config) Weekend() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(c.Calendar.WeekendDays))
	for _, name := range c.Calendar.WeekendDays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("calendar.weekend_days: unknown weekday %q", name)
		}
		days = append(days, d)
	}
	if len(days) >= 7 {
		return nil, errors.New("calendar.weekend_days leaves no working days")
	}
	return days, nil
}

// MaxUploadBytes returns the document size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Documents.MaxUploadMB) << 20
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// ReminderInterval returns how often the due-soon sweep runs; zero disables it.
func (c *Config) ReminderInterval() time.Duration {
	if c.Notifications.ReminderIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Notifications.ReminderIntervalMinutes) * time.Minute
}

// LockPath returns the single-instance lock file for serve.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "stagegate.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
