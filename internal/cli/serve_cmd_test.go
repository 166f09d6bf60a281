package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/config"
)

func TestServe_RefusesWhenLocked(t *testing.T) {
	app := testApp(t, true)
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Server.Bind = "127.0.0.1:0"
	app.Config = &cfg

	other := flock.New(filepath.Join(cfg.Paths.DataDir, "stagegate.lock"))
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	_, err = executeCmd(t, app, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another stagegate server holds")
}

func TestRunReminders_StopsWithContext(t *testing.T) {
	app := testApp(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runReminders(ctx, app.Notifications, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder loop did not stop")
	}
}
