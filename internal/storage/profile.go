package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DevN0mad/cbremote/internal/models"
)

// ErrNoProfileRuns в базе нет ни одного прогона профилировщика.
var ErrNoProfileRuns = errors.New("no profile runs")

// SaveProfileSamples сохраняет измерения одного прогона в одной транзакции.
func (s *Storage) SaveProfileSamples(ctx context.Context, samples []models.ProfileSample) error {
	if len(samples) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&samples).Error
	})
	if err != nil {
		s.logger.Error("failed to save profile samples", "run_id", samples[0].RunID, "error", err)
		return fmt.Errorf("save profile samples: %w", err)
	}

	s.logger.Debug("profile samples saved", "run_id", samples[0].RunID, "count", len(samples))
	return nil
}

// LatestProfileRun возвращает измерения последнего сохраненного прогона
// в порядке записи.
func (s *Storage) LatestProfileRun(ctx context.Context) ([]models.ProfileSample, error) {
	db := s.db.WithContext(ctx)

	var last models.ProfileSample
	if err := db.Order("id desc").First(&last).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProfileRuns
		}
		return nil, fmt.Errorf("find latest run: %w", err)
	}

	var samples []models.ProfileSample
	if err := db.Where("run_id = ?", last.RunID).Order("id").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("load run %s: %w", last.RunID, err)
	}
	return samples, nil
}
