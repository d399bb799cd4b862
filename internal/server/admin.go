package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DevN0mad/cbremote/internal/models"
	"github.com/DevN0mad/cbremote/internal/services"
	"github.com/DevN0mad/cbremote/internal/storage"
)

const APIv1Prefix = "/api/v1/"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminServerOpts параметры для настройки административного сервера.
type AdminServerOpts struct {
	Address             string `mapstructure:"address" yaml:"address" validate:"required"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds" validate:"min=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds" validate:"min=0"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds" yaml:"idle_timeout_seconds" validate:"min=0"`
}

// Reporter операции CodeBeamer, которые доступны через административный сервер.
type Reporter interface {
	WriteWorkbook(ctx context.Context, w io.Writer) (services.WorkbookSummary, error)
	Profile(ctx context.Context) ([]models.ProfileSample, error)
}

// ProfileStore хранилище результатов профилирования.
type ProfileStore interface {
	SaveProfileSamples(ctx context.Context, samples []models.ProfileSample) error
	LatestProfileRun(ctx context.Context) ([]models.ProfileSample, error)
	GetChats(ctx context.Context) ([]models.Chat, error)
}

// ProfileRun ответ на запросы профилирования.
type ProfileRun struct {
	RunID   string                 `json:"run_id"`
	Samples []models.ProfileSample `json:"samples"`
	Error   string                 `json:"error,omitempty"`
}

// AdminServer обрабатывает административные команды.
type AdminServer struct {
	logger   *slog.Logger
	opts     *AdminServerOpts
	srv      *http.Server
	reporter Reporter
	store    ProfileStore
	now      func() time.Time
}

// NewAdminServer создаёт новый обработчик для административных команд.
func NewAdminServer(logger *slog.Logger, reporter Reporter, store ProfileStore, opts *AdminServerOpts) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		logger:   logger,
		opts:     opts,
		reporter: reporter,
		store:    store,
		now:      time.Now,
	}
}

// Register регистрирует маршруты административного сервера.
func (h *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc(withPrefix("export"), h.handleExport)
	mux.HandleFunc(withPrefix("profile"), h.handleProfile)
	mux.HandleFunc(withPrefix("chats"), h.handleChats)
}

// handleExport отдает свежую выгрузку CodeBeamer в формате XLSX.
func (h *AdminServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	summary, err := h.reporter.WriteWorkbook(r.Context(), &buf)
	if err != nil {
		h.logger.Error("Export workbook", "error", err)
		http.Error(w, "Failed to export workbook", http.StatusBadGateway)
		return
	}

	name := "codebeamer-" + h.now().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Write workbook response", "error", err)
		return
	}
	h.logger.Info("Workbook served", "file", name, "summary", summary)
}

// handleProfile POST запускает профилирование, GET возвращает последний прогон.
func (h *AdminServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.runProfile(w, r)
	case http.MethodGet:
		h.latestProfile(w, r)
	default:
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminServer) runProfile(w http.ResponseWriter, r *http.Request) {
	samples, err := h.reporter.Profile(r.Context())
	if len(samples) == 0 {
		if err == nil {
			err = errors.New("no samples")
		}
		h.logger.Error("Profile remote api", "error", err)
		http.Error(w, "Failed to profile remote api", http.StatusBadGateway)
		return
	}

	run := ProfileRun{RunID: samples[0].RunID, Samples: samples}
	if err != nil {
		h.logger.Warn("Profile finished with errors", "run_id", run.RunID, "error", err)
		run.Error = err.Error()
	}

	if h.store != nil {
		if err := h.store.SaveProfileSamples(r.Context(), samples); err != nil {
			h.logger.Error("Save profile samples", "run_id", run.RunID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, run, h.logger)
}

func (h *AdminServer) latestProfile(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "Storage is not configured", http.StatusNotFound)
		return
	}

	samples, err := h.store.LatestProfileRun(r.Context())
	if errors.Is(err, storage.ErrNoProfileRuns) {
		http.Error(w, "No profile runs", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Load latest profile run", "error", err)
		http.Error(w, "Failed to load profile run", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ProfileRun{RunID: samples[0].RunID, Samples: samples}, h.logger)
}

// handleChats возвращает чаты, подписанные на рассылку.
func (h *AdminServer) handleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "Storage is not configured", http.StatusNotFound)
		return
	}

	chats, err := h.store.GetChats(r.Context())
	if err != nil {
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, chats, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Write json response", "error", err)
	}
}

// Start запускает административный сервер.
func (h *AdminServer) Start(ctx context.Context) error {
	h.logger.Info("Starting admin server", "address", h.opts.Address)
	mux := http.NewServeMux()
	h.Register(mux)
	h.srv = &http.Server{
		Addr:         h.opts.Address,
		ReadTimeout:  time.Duration(h.opts.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(h.opts.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(h.opts.IdleTimeoutSeconds) * time.Second,
		Handler:      mux,
	}

	go func() {
		<-ctx.Done()

		h.logger.Info("Shutting down admin server (ctx canceled)")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Admin server shutdown error", "error", err)
		}
	}()

	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Admin server error", "error", err)
		return err
	}

	h.logger.Info("Admin server stopped")
	return nil
}

// withPrefix добавляет префикс к пути API.
func withPrefix(postfix string) string {
	return APIv1Prefix + strings.TrimSpace(postfix)
}
