package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DevN0mad/cbremote/internal/models"
)

// StorageOpts параметры локальной базы демона.
type StorageOpts struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// Storage локальная база демона: подписанные чаты и результаты профилирования.
type Storage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStorage(opts StorageOpts, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("failed to create db dir", "dir", dir, "error", err)
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("failed to open sqlite db", "path", opts.Path, "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&models.Chat{}, &models.ProfileSample{}); err != nil {
		logger.Error("failed to auto-migrate models", "error", err)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("sqlite storage initialized", "path", opts.Path)

	return &Storage{db: db, logger: logger}, nil
}

// Close закрывает соединение с базой.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
