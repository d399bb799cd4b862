package config

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/DevN0mad/cbremote/internal/server"
	"github.com/DevN0mad/cbremote/internal/services"
	"github.com/DevN0mad/cbremote/internal/storage"
)

// Config представляет конфигурацию приложения.
type Config struct {
	CodeBeamer  services.CodeBeamerOpts `mapstructure:"codebeamer"`
	TelegramBot services.TelegramOpts   `mapstructure:"telegram_bot"`
	DailyJob    services.DailyJobOpts   `mapstructure:"daily_job"`
	HttpServer  server.AdminServerOpts  `mapstructure:"http_server"`
	Storage     storage.StorageOpts     `mapstructure:"storage"`
}

// Manager управляет конфигурацией приложения, обеспечивая загрузку,
// проверку и перезагрузку файла при изменении.
type Manager struct {
	mu          sync.RWMutex
	cfg         *Config
	logger      *slog.Logger
	v           *viper.Viper
	subscribers []func(Config)
	validate    *validator.Validate
}

// NewManager создает новый менеджер конфигурации, загружая конфигурацию из указанного пути.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	m := &Manager{
		cfg:      &cfg,
		logger:   logger,
		v:        v,
		validate: validator.New(),
	}
	err := m.validate.Struct(&cfg)
	if err != nil {
		logger.Error("Validate config", "error", err)
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger.Info("Config loaded", "path", path)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("Config file changed", "name", e.Name, "op", e.Op.String())

		var newCfg Config
		if err := v.Unmarshal(&newCfg); err != nil {
			logger.Error("Failed to reload config", "error", err)
			return
		}

		if err := m.validate.Struct(&newCfg); err != nil {
			logger.Error("Validate reloaded config", "error", err)
			return
		}

		m.mu.Lock()
		m.cfg = &newCfg
		subs := append([]func(Config){}, m.subscribers...)
		m.mu.Unlock()

		logger.Info("Config reloaded successfully")

		for _, fn := range subs {
			fn(newCfg)
		}
	})

	return m, nil
}

// setDefaults значения, которые можно не указывать в файле.
func setDefaults(v *viper.Viper) {
	v.SetDefault("codebeamer.timeout_seconds", 30)
	v.SetDefault("daily_job.hour", 9)
	v.SetDefault("daily_job.file_path", "/var/lib/cbremote/codebeamer.xlsx")
	v.SetDefault("telegram_bot.message", "CodeBeamer export")
	v.SetDefault("http_server.address", "127.0.0.1:8080")
	v.SetDefault("http_server.read_timeout_seconds", 10)
	v.SetDefault("http_server.write_timeout_seconds", 300)
	v.SetDefault("http_server.idle_timeout_seconds", 60)
	v.SetDefault("storage.path", "/var/lib/cbremote/cbremote.db")
}

// Current возвращает текущую конфигурацию.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// OnChange регистрирует функцию обратного вызова, которая будет вызвана при изменении конфигурации.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}
