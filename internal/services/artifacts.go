package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/DevN0mad/cbremote/internal/models"
)

const (
	sampleDocumentName = "My Document.txt"
	sampleFirstBody    = "This is the binary content of the file."
	sampleSecondBody   = "This is the changed binary content of the file (<strong>second</strong> version)."
)

// DownloadResult результат скачивания артефакта.
type DownloadResult struct {
	Artifact models.Artifact
	Path     string
	Size     int64
}

// UploadResult результат загрузки демонстрационного документа.
type UploadResult struct {
	Directory models.Artifact
	Document  models.Artifact
}

func (s *Session) logger() *slog.Logger {
	return s.svc.logger
}

// DownloadArtifact находит артефакт по имени в проекте и сохраняет его
// содержимое в каталог dir под именем файла, которое вернул сервер.
func (s *Session) DownloadArtifact(ctx context.Context, projectName, artifactName, dir string) (DownloadResult, error) {
	project, err := s.ProjectByName(ctx, projectName)
	if err != nil {
		return DownloadResult{}, err
	}

	top, err := s.FindTopArtifactsByProject(ctx, project.ID)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("list artifacts of project %q: %w", projectName, err)
	}

	artifact, err := s.FindArtifactByName(ctx, top, artifactName)
	if err != nil {
		return DownloadResult{}, err
	}

	body, err := s.GetArtifactBody(ctx, artifact.ID)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download artifact %d: %w", artifact.ID, err)
	}
	if body == nil {
		return DownloadResult{}, fmt.Errorf("artifact %q: empty content, check the artifact name and access rights", artifactName)
	}

	name := body.FileName
	if name == "" {
		name = artifact.Name
	}
	path := filepath.Join(dir, filepath.Base(name))

	if err := os.WriteFile(path, body.Data, 0o644); err != nil {
		s.logger().Error("Failed to save artifact", "path", path, "error", err)
		return DownloadResult{}, fmt.Errorf("save artifact to %q: %w", path, err)
	}

	s.logger().Info("Artifact downloaded", "artifact_id", artifact.ID, "path", path, "bytes", len(body.Data))
	return DownloadResult{Artifact: artifact, Path: path, Size: int64(len(body.Data))}, nil
}

// UploadSample создает в корне проекта папку, загружает в нее текстовый
// документ и добавляет вторую ревизию этого документа.
func (s *Session) UploadSample(ctx context.Context, projectName string, now time.Time) (UploadResult, error) {
	project, err := s.ProjectByName(ctx, projectName)
	if err != nil {
		return UploadResult{}, err
	}

	user, err := s.SessionUser(ctx)
	if err != nil {
		return UploadResult{}, fmt.Errorf("get session user: %w", err)
	}

	dir, err := s.CreateArtifact(ctx, models.Artifact{
		Project:     project.Ref(),
		Name:        "API Uploads at " + now.Format(time.UnixDate),
		TypeID:      models.ArtifactTypeDir,
		Description: "This directory was created through the CodeBeamer API.",
		Owner:       user.Ref(),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("create directory: %w", err)
	}

	doc, err := s.CreateArtifactWithBody(ctx, models.Artifact{
		Project:     project.Ref(),
		Parent:      dir.Ref(),
		Name:        sampleDocumentName,
		TypeID:      models.ArtifactTypeFile,
		Description: "This document was uploaded through the CodeBeamer API.",
		Owner:       user.Ref(),
		Status:      models.NewRef(models.ArtifactStatusNew),
		Comment:     "Initial upload",
	}, models.NewBinaryStream(sampleDocumentName, []byte(sampleFirstBody)))
	if err != nil {
		return UploadResult{Directory: dir}, fmt.Errorf("upload document: %w", err)
	}

	if err := s.UpdateArtifactBody(ctx, doc.ID, models.NewBinaryStream(sampleDocumentName, []byte(sampleSecondBody)), "Second version."); err != nil {
		return UploadResult{Directory: dir, Document: doc}, fmt.Errorf("upload second revision: %w", err)
	}

	s.logger().Info("Sample document uploaded", "directory_id", dir.ID, "document_id", doc.ID)
	return UploadResult{Directory: dir, Document: doc}, nil
}

// UploadFile загружает локальный файл в проект. Если parentID больше нуля,
// файл помещается в соответствующую папку, иначе в корень проекта.
func (s *Session) UploadFile(ctx context.Context, projectName string, parentID int, path string) (models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("read %q: %w", path, err)
	}

	project, err := s.ProjectByName(ctx, projectName)
	if err != nil {
		return models.Artifact{}, err
	}

	user, err := s.SessionUser(ctx)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("get session user: %w", err)
	}

	name := filepath.Base(path)
	size := int64(len(data))
	artifact := models.Artifact{
		Project:     project.Ref(),
		Name:        name,
		TypeID:      models.ArtifactTypeFile,
		Description: "This document was uploaded through the CodeBeamer API.",
		MimeType:    DetectMimeType(name, data),
		FileSize:    &size,
		Owner:       user.Ref(),
		Status:      models.NewRef(models.ArtifactStatusNew),
		Comment:     "Initial upload",
	}
	if parentID > 0 {
		artifact.Parent = models.NewRef(parentID)
	}

	created, err := s.CreateArtifactWithBody(ctx, artifact, models.NewBinaryStream(name, data))
	if err != nil {
		return models.Artifact{}, fmt.Errorf("upload %q: %w", name, err)
	}

	s.logger().Info("File uploaded", "artifact_id", created.ID, "name", name, "mime_type", artifact.MimeType, "bytes", size)
	return created, nil
}

// DetectMimeType определяет MIME-тип файла по содержимому. Для изображений
// тип берется из расширения, если содержимое тоже распознано как изображение.
func DetectMimeType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return detected.String()
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif", ".png":
		return "image/" + ext[1:]
	}
	return detected.String()
}
