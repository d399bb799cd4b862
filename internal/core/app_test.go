package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/config"
	"github.com/DevN0mad/cbremote/internal/services"
	"github.com/DevN0mad/cbremote/internal/storage"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		CodeBeamer: services.CodeBeamerOpts{
			ServiceURL:     "http://localhost:8080/cb/remote-api",
			Login:          "bond",
			TimeoutSeconds: 5,
		},
		TelegramBot: services.TelegramOpts{Token: "123:abc", Message: "CodeBeamer export"},
		DailyJob:    services.DailyJobOpts{FilePath: filepath.Join(t.TempDir(), "cb.xlsx"), Hour: 9},
		Storage:     storage.StorageOpts{Path: filepath.Join(t.TempDir(), "cb.db")},
	}
}

func TestApplyConfig_BuildFailureKeepsRunningServices(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "invalid service url",
			mutate:  func(c *config.Config) { c.CodeBeamer.ServiceURL = "not a url" },
			wantErr: "init codebeamer service",
		},
		{
			name:    "storage directory unavailable",
			mutate:  func(c *config.Config) { c.Storage.Path = filepath.Join(blocker, "cb.db") },
			wantErr: "init storage",
		},
		{
			name:    "telegram token missing",
			mutate:  func(c *config.Config) { c.TelegramBot.Token = "" },
			wantErr: "init telegram bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

			// уже работающий набор сервисов
			stopped := false
			app.servicesCancel = func() { stopped = true }

			cfg := baseConfig(t)
			tt.mutate(&cfg)

			err := app.ApplyConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, stopped)
			assert.NotNil(t, app.servicesCancel)
		})
	}
}

func TestShutdown_StopsRunningServices(t *testing.T) {
	app := NewApp(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	stopped := false
	app.servicesCancel = func() { stopped = true }

	app.Shutdown()
	assert.True(t, stopped)
	assert.Nil(t, app.servicesCancel)
}
