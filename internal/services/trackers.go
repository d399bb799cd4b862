package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DevN0mad/cbremote/internal/models"
)

// CreateTrackerItemInProject создает задачу в трекере проекта и затем переименовывает
// ее, чтобы показать обновление существующей задачи.
func (s *Session) CreateTrackerItemInProject(ctx context.Context, projectName, trackerName, summary, description string) (models.TrackerItem, error) {
	tracker, err := s.FindTrackerByName(ctx, projectName, trackerName)
	if err != nil {
		return models.TrackerItem{}, err
	}
	s.logger().Info("Found tracker", "tracker_id", tracker.ID, "project", projectName)

	item, err := s.CreateTrackerItem(ctx, models.TrackerItem{
		Tracker:           tracker.Ref(),
		Name:              summary,
		Description:       description,
		DescriptionFormat: models.DescriptionFormatWiki,
	})
	if err != nil {
		return models.TrackerItem{}, fmt.Errorf("create tracker item: %w", err)
	}
	s.logger().Info("Tracker item created", "item_id", item.ID)

	item.Name += " ---"
	updated, err := s.UpdateTrackerItem(ctx, item)
	if err != nil {
		return item, fmt.Errorf("update tracker item %d: %w", item.ID, err)
	}
	return updated, nil
}

// AttachToTrackerItem прикрепляет локальный файл к задаче.
func (s *Session) AttachToTrackerItem(ctx context.Context, itemID int, path, description string) (models.TrackerItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.TrackerItem{}, fmt.Errorf("read %q: %w", path, err)
	}

	name := filepath.Base(path)
	size := int64(len(data))
	attachment := models.Artifact{
		Name:        name,
		TypeID:      models.ArtifactTypeAttachment,
		MimeType:    DetectMimeType(name, data),
		Description: description,
		FileSize:    &size,
	}

	item, err := s.AddTrackerItemAttachment(ctx, itemID, attachment, models.NewBinaryStream(name, data))
	if err != nil {
		return models.TrackerItem{}, fmt.Errorf("attach %q to item %d: %w", name, itemID, err)
	}

	s.logger().Info("Attachment added", "item_id", itemID, "name", name, "mime_type", attachment.MimeType, "bytes", size)
	return item, nil
}

// ListAssociations возвращает строки "<id>: <type>" для всех связей.
func (s *Session) ListAssociations(ctx context.Context) ([]string, error) {
	associations, err := s.FindAllAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}

	lines := make([]string, 0, len(associations))
	for _, a := range associations {
		lines = append(lines, fmt.Sprintf("%d: %s", a.ID, a.Type.Name))
	}
	return lines, nil
}
