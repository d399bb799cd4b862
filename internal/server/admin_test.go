package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
	"github.com/DevN0mad/cbremote/internal/services"
	"github.com/DevN0mad/cbremote/internal/storage"
)

type stubReporter struct {
	workbook    []byte
	workbookErr error
	samples     []models.ProfileSample
	profileErr  error
}

func (s *stubReporter) WriteWorkbook(_ context.Context, w io.Writer) (services.WorkbookSummary, error) {
	if s.workbookErr != nil {
		return nil, s.workbookErr
	}
	_, err := w.Write(s.workbook)
	return services.WorkbookSummary{services.SheetProjects: 1}, err
}

func (s *stubReporter) Profile(context.Context) ([]models.ProfileSample, error) {
	return s.samples, s.profileErr
}

type memProfiles struct {
	runs  [][]models.ProfileSample
	chats []models.Chat
}

func (m *memProfiles) SaveProfileSamples(_ context.Context, samples []models.ProfileSample) error {
	m.runs = append(m.runs, samples)
	return nil
}

func (m *memProfiles) LatestProfileRun(context.Context) ([]models.ProfileSample, error) {
	if len(m.runs) == 0 {
		return nil, storage.ErrNoProfileRuns
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *memProfiles) GetChats(context.Context) ([]models.Chat, error) {
	return m.chats, nil
}

func newTestServer(t *testing.T, reporter Reporter, store ProfileStore) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := NewAdminServer(logger, reporter, store, &AdminServerOpts{Address: ":0"})
	admin.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	mux := http.NewServeMux()
	admin.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func samples(runID string, ops ...string) []models.ProfileSample {
	out := make([]models.ProfileSample, 0, len(ops))
	for _, op := range ops {
		out = append(out, models.ProfileSample{RunID: runID, Operation: op, Count: 1, Unit: "items"})
	}
	return out
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, &stubReporter{workbook: []byte("PK-xlsx")}, &memProfiles{})

	resp, err := http.Get(srv.URL + "/api/v1/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="codebeamer-20260102-030405.xlsx"`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK-xlsx", string(body))
}

func TestExport_Failure(t *testing.T) {
	srv := newTestServer(t, &stubReporter{workbookErr: errors.New("remote down")}, &memProfiles{})

	resp, err := http.Get(srv.URL + "/api/v1/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestExport_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubReporter{}, &memProfiles{})

	resp, err := http.Post(srv.URL+"/api/v1/export", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestProfile_RunAndLatest(t *testing.T) {
	store := &memProfiles{}
	reporter := &stubReporter{samples: samples("run-1", "findAllUsers", "findAllProjects")}
	srv := newTestServer(t, reporter, store)

	resp, err := http.Get(srv.URL + "/api/v1/profile")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/profile", "application/json", nil)
	require.NoError(t, err)
	var run ProfileRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-1", run.RunID)
	assert.Len(t, run.Samples, 2)
	assert.Empty(t, run.Error)
	require.Len(t, store.runs, 1)

	resp, err = http.Get(srv.URL + "/api/v1/profile")
	require.NoError(t, err)
	var latest ProfileRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&latest))
	resp.Body.Close()
	assert.Equal(t, "run-1", latest.RunID)
	assert.Equal(t, "findAllProjects", latest.Samples[1].Operation)
}

func TestProfile_PartialFailure(t *testing.T) {
	store := &memProfiles{}
	reporter := &stubReporter{
		samples:    samples("run-2", "findAllProjects"),
		profileErr: errors.New("profile users: access denied"),
	}
	srv := newTestServer(t, reporter, store)

	resp, err := http.Post(srv.URL+"/api/v1/profile", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var run ProfileRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, run.Error, "access denied")
	assert.Len(t, store.runs, 1)
}

func TestProfile_NoSamples(t *testing.T) {
	srv := newTestServer(t, &stubReporter{profileErr: errors.New("sign in: denied")}, &memProfiles{})

	resp, err := http.Post(srv.URL+"/api/v1/profile", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestChats(t *testing.T) {
	store := &memProfiles{chats: []models.Chat{{ID: 1, ChatID: 42, Title: "Release team"}}}
	srv := newTestServer(t, &stubReporter{}, store)

	resp, err := http.Get(srv.URL + "/api/v1/chats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var chats []models.Chat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chats))
	require.Len(t, chats, 1)
	assert.Equal(t, int64(42), chats[0].ChatID)
}

func TestStart_StopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := NewAdminServer(logger, &stubReporter{}, &memProfiles{}, &AdminServerOpts{Address: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- admin.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("admin server did not stop")
	}
}
