package models

import "time"

// ProfileSample представляет одно измерение вызова удаленного API
type ProfileSample struct {
	ID            uint          `gorm:"column:id;primaryKey" json:"-"`
	RunID         string        `gorm:"column:run_id;index;not null" json:"run_id"`
	Operation     string        `gorm:"column:operation;not null" json:"operation"`
	Count         int           `gorm:"column:count" json:"count"`
	Unit          string        `gorm:"column:unit" json:"unit"`
	Duration      time.Duration `gorm:"column:duration" json:"duration_ns"`
	RatePerSecond float64       `gorm:"column:rate_per_second" json:"rate_per_second"`
	RecordedAt    time.Time     `gorm:"column:recorded_at;autoCreateTime" json:"recorded_at"`
}

func (ProfileSample) TableName() string {
	return "profile_samples"
}
