package services

import (
	"context"
	"io"

	"github.com/DevN0mad/cbremote/internal/models"
)

// Операции демона: каждая открывает свою сессию, поэтому их можно
// вызывать одновременно из планировщика и административного сервера.

// SaveWorkbook выгружает книгу в файл path.
func (s *CodeBeamerService) SaveWorkbook(ctx context.Context, path string) (WorkbookSummary, error) {
	var summary WorkbookSummary
	err := s.WithSession(ctx, func(sess *Session) error {
		var err error
		summary, err = NewExporter(sess, s.logger).SaveWorkbook(ctx, path)
		return err
	})
	return summary, err
}

// WriteWorkbook выгружает книгу в w.
func (s *CodeBeamerService) WriteWorkbook(ctx context.Context, w io.Writer) (WorkbookSummary, error) {
	var summary WorkbookSummary
	err := s.WithSession(ctx, func(sess *Session) error {
		var err error
		summary, err = NewExporter(sess, s.logger).WriteWorkbook(ctx, w)
		return err
	})
	return summary, err
}

// Profile выполняет прогон профилировщика.
func (s *CodeBeamerService) Profile(ctx context.Context) ([]models.ProfileSample, error) {
	var samples []models.ProfileSample
	err := s.WithSession(ctx, func(sess *Session) error {
		var err error
		samples, err = NewProfiler(sess, nil, s.logger).Run(ctx)
		return err
	})
	return samples, err
}
