package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewStorage(StorageOpts{Path: filepath.Join(t.TempDir(), "db", "cb.sqlite")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestChats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ids, err := s.ListChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveChat(ctx, 42, "Release team"))
	require.NoError(t, s.SaveChat(ctx, -100, "QA"))
	require.NoError(t, s.SaveChat(ctx, 42, "Release crew"))

	ids, err = s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, -100}, ids)

	chats, err := s.GetChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Release crew", chats[0].Title)
	assert.False(t, chats[0].AddedAt.IsZero())

	require.NoError(t, s.RemoveChat(ctx, 42))
	require.NoError(t, s.RemoveChat(ctx, 42))

	ids, err = s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100}, ids)
}

func sampleRun(runID string, ops ...string) []models.ProfileSample {
	samples := make([]models.ProfileSample, 0, len(ops))
	for i, op := range ops {
		samples = append(samples, models.ProfileSample{
			RunID:         runID,
			Operation:     op,
			Count:         i + 1,
			Unit:          "items",
			Duration:      time.Duration(i+1) * time.Millisecond,
			RatePerSecond: float64(1000),
		})
	}
	return samples
}

func TestProfileRuns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.LatestProfileRun(ctx)
	assert.ErrorIs(t, err, ErrNoProfileRuns)

	require.NoError(t, s.SaveProfileSamples(ctx, nil))
	require.NoError(t, s.SaveProfileSamples(ctx, sampleRun("first", "findAllUsers", "findAllProjects")))
	require.NoError(t, s.SaveProfileSamples(ctx, sampleRun("second", "findAllTrackers", "findAllProjects", "findAllUsers")))

	latest, err := s.LatestProfileRun(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	for _, sample := range latest {
		assert.Equal(t, "second", sample.RunID)
	}
	assert.Equal(t, "findAllTrackers", latest[0].Operation)
	assert.Equal(t, 3*time.Millisecond, latest[2].Duration)
	assert.False(t, latest[0].RecordedAt.IsZero())
}
