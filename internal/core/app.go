package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DevN0mad/cbremote/internal/config"
	"github.com/DevN0mad/cbremote/internal/server"
	"github.com/DevN0mad/cbremote/internal/services"
	"github.com/DevN0mad/cbremote/internal/storage"
)

// App представляет основное приложение, управляющее сервисами.
type App struct {
	logger  *slog.Logger
	rootCtx context.Context

	mu             sync.Mutex
	store          *storage.Storage
	tg             *services.TelegramBotService
	cbSrv          *services.CodeBeamerService
	dailyJob       *services.DailyJobService
	adminSrv       *server.AdminServer
	servicesCancel context.CancelFunc
	wg             sync.WaitGroup
}

// NewApp создает новый экземпляр приложения с заданным логгером и корневым контекстом.
func NewApp(ctx context.Context, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &App{
		logger:  logger,
		rootCtx: ctx,
	}
}

// ApplyConfig применяет конфигурацию к приложению, инициализируя/переинициализируя сервисы.
// Прежние сервисы останавливаются только после успешной сборки новых.
func (a *App) ApplyConfig(cfg config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cbSrv, err := services.NewCodeBeamerService(cfg.CodeBeamer, a.logger)
	if err != nil {
		return fmt.Errorf("init codebeamer service: %w", err)
	}

	store, err := storage.NewStorage(cfg.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	tg, err := services.NewTelegramBot(cfg.TelegramBot, store, a.logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("init telegram bot: %w", err)
	}

	dailyJob, err := services.NewDailyJobService(cbSrv, tg, cfg.DailyJob, a.logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("init daily job: %w", err)
	}

	httpOpts := cfg.HttpServer
	adminSrv := server.NewAdminServer(a.logger, cbSrv, store, &httpOpts)

	// адрес админки освобождается только после остановки прежнего сервера
	a.stopLocked()

	ctx, cancel := context.WithCancel(a.rootCtx)
	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		tg.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		dailyJob.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := adminSrv.Start(ctx); err != nil {
			a.logger.Error("Admin server exited with error", "error", err)
		}
	}()

	a.store = store
	a.tg = tg
	a.cbSrv = cbSrv
	a.dailyJob = dailyJob
	a.adminSrv = adminSrv
	a.servicesCancel = cancel

	a.logger.Info("Services reinitialized successfully with configuration", "service_url", cbSrv.ServiceURL())
	return nil
}

// stopLocked останавливает запущенные сервисы и ждет их завершения.
func (a *App) stopLocked() {
	if a.servicesCancel == nil {
		return
	}

	a.logger.Info("Stopping previous services")
	a.servicesCancel()
	a.servicesCancel = nil
	a.wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close storage", "error", err)
		}
		a.store = nil
	}
}

// Shutdown останавливает все запущенные сервисы приложения.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("Stopping services on shutdown")
	a.stopLocked()
}
