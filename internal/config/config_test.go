package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STAGEGATE_DB", "")
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 7, cfg.Health.RedThresholdDays)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "stagegate.db"), cfg.Paths.DBPath)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "documents"), cfg.Paths.DocumentsDir)
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Setenv("STAGEGATE_DB", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
data_dir = "` + filepath.ToSlash(dir) + `"

[calendar]
weekend_days = ["Friday"]

[health]
red_threshold_days = 10

[logging]
level = "DEBUG"
format = "json"

[cli]
user = " Asha "
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, _, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 10, cfg.Health.RedThresholdDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "asha", cfg.CLI.User)

	weekend, err := cfg.Weekend()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Friday}, weekend)
	assert.Equal(t, filepath.Join(dir, "stagegate.lock"), cfg.LockPath())
}

func TestLoad_EnvOverridesDB(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STAGEGATE_DB", filepath.Join(dir, "other.db"))
	cfg, _, _, err := Load(filepath.Join(dir, "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.Paths.DBPath)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad weekday":    func(c *Config) { c.Calendar.WeekendDays = []string{"funday"} },
		"all weekend":    func(c *Config) { c.Calendar.WeekendDays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} },
		"zero red":       func(c *Config) { c.Health.RedThresholdDays = 0 },
		"negative amber": func(c *Config) { c.Health.AmberWindowDays = -1 },
		"zero upload":    func(c *Config) { c.Documents.MaxUploadMB = 0 },
		"bad format":     func(c *Config) { c.Logging.Format = "xml" },
		"bad level":      func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.NotificationTimeout())
	assert.Equal(t, time.Hour, cfg.ReminderInterval())
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes())
	cfg.Notifications.ReminderIntervalMinutes = 0
	assert.Zero(t, cfg.ReminderInterval())
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateSample(path))
	cfg, _, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "127.0.0.1:8460", cfg.Server.Bind)
}
