package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DailyJobOpts параметры необходимые для работы сервиса.
type DailyJobOpts struct {
	FilePath string `mapstructure:"file_path" yaml:"file_path" validate:"required"`
	Hour     int    `mapstructure:"hour" yaml:"hour" validate:"min=0,max=23"`
	Minute   int    `mapstructure:"minute" yaml:"minute" validate:"min=0,max=59"`
}

// WorkbookSaver выгружает книгу CodeBeamer в файл.
type WorkbookSaver interface {
	SaveWorkbook(ctx context.Context, path string) (WorkbookSummary, error)
}

// FileSender отправляет файл получателям.
type FileSender interface {
	SendFile(ctx context.Context, path string) error
}

// DailyJobService выгружает данные CodeBeamer и отправляет файл каждый день в заданное время.
type DailyJobService struct {
	exporter WorkbookSaver
	sender   FileSender
	filePath string
	hour     int
	minute   int
	timezone *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewDailyJobService создаёт сервис для ежедневной выгрузки и отправки файлов.
func NewDailyJobService(
	exporter WorkbookSaver,
	sender FileSender,
	opts DailyJobOpts,
	logger *slog.Logger,
) (*DailyJobService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if exporter == nil {
		return nil, fmt.Errorf("exporter is required")
	}

	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}

	if opts.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	logger.Info("Daily job configured",
		"hour", opts.Hour,
		"minute", opts.Minute,
		"timezone", time.Local.String(),
		"file", opts.FilePath)

	return &DailyJobService{
		exporter: exporter,
		sender:   sender,
		filePath: opts.FilePath,
		hour:     opts.Hour,
		minute:   opts.Minute,
		timezone: time.Local,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start запускает цикл выгрузки и отправки.
func (d *DailyJobService) Start(ctx context.Context) {
	nextRun := d.nextRunTime()
	timer := time.NewTimer(time.Until(nextRun))
	d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutdown requested")
			timer.Stop()
			return
		case <-timer.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("Daily export failed", "error", err)
			} else {
				d.logger.Info("Daily export sent successfully")
			}

			nextRun = d.nextRunTime()
			timer.Reset(time.Until(nextRun))
			d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))
		}
	}
}

// RunOnce выгружает книгу и отправляет ее.
func (d *DailyJobService) RunOnce(ctx context.Context) error {
	summary, err := d.exporter.SaveWorkbook(ctx, d.filePath)
	if err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	d.logger.Info("Workbook exported", "path", d.filePath, "summary", summary)

	if err := d.sender.SendFile(ctx, d.filePath); err != nil {
		return fmt.Errorf("send workbook: %w", err)
	}
	return nil
}

// nextRunTime вычисляет ближайшее время
func (d *DailyJobService) nextRunTime() time.Time {
	now := d.now().In(d.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.timezone)

	if now.After(today) {
		return today.Add(24 * time.Hour)
	}
	return today
}
