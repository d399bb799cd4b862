package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DevN0mad/cbremote/internal/models"
)

// ErrNoRootWikiPage у проекта нет корневой вики-страницы.
var ErrNoRootWikiPage = errors.New("could not find root wiki page")

// ImageExtensions расширения файлов, которые прикрепляются к вики-странице.
var ImageExtensions = []string{".jpg", ".gif", ".png"}

// CreateWikiPageInProject создает страницу под первой корневой
// вики-страницей проекта.
func (s *Session) CreateWikiPageInProject(ctx context.Context, projectName, name, content string) (models.WikiPage, error) {
	project, err := s.ProjectByName(ctx, projectName)
	if err != nil {
		return models.WikiPage{}, err
	}

	roots, err := s.FindTopWikiPagesByProject(ctx, project.ID)
	if err != nil {
		return models.WikiPage{}, fmt.Errorf("list wiki pages of project %q: %w", projectName, err)
	}
	if len(roots) == 0 {
		return models.WikiPage{}, ErrNoRootWikiPage
	}

	page, err := s.CreateWikiPage(ctx, models.WikiPage{
		Project:     project.Ref(),
		Parent:      roots[0].Ref(),
		Name:        name,
		Description: "Wiki page created with the Remote API",
	}, content, "Created by cb", models.DescriptionFormatPlain)
	if err != nil {
		return models.WikiPage{}, fmt.Errorf("create wiki page: %w", err)
	}

	s.logger().Info("Wiki page created", "page_id", page.ID, "name", page.Name)
	return page, nil
}

// ImageFiles возвращает изображения каталога dir, отсортированные по имени.
func ImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// AttachProgress вызывается перед загрузкой каждого файла.
type AttachProgress func(index, total int, path string, size int64)

// AttachImages прикрепляет все изображения каталога к вики-странице и
// возвращает число загруженных файлов. Ошибка отдельного файла
// записывается в лог, остальные файлы загружаются.
func (s *Session) AttachImages(ctx context.Context, pageID int, dir string, progress AttachProgress) (int, error) {
	page, err := s.FindWikiPageByID(ctx, pageID)
	if err != nil {
		return 0, err
	}

	files, err := ImageFiles(dir)
	if err != nil {
		return 0, err
	}

	user, err := s.SessionUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("get session user: %w", err)
	}

	uploaded := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger().Error("Failed to read image", "path", path, "error", err)
			continue
		}
		if progress != nil {
			progress(i+1, len(files), path, int64(len(data)))
		}

		name := filepath.Base(path)
		size := int64(len(data))
		_, err = s.CreateArtifactWithBody(ctx, models.Artifact{
			TypeID:      models.ArtifactTypeAttachment,
			Parent:      page.Ref(),
			Description: "Image attachment uploaded using the RemoteAPI.",
			Name:        name,
			MimeType:    DetectMimeType(name, data),
			FileSize:    &size,
			Owner:       user.Ref(),
		}, models.NewBinaryStream(name, data))
		if err != nil {
			s.logger().Error("Failed to upload image", "path", path, "error", err)
			continue
		}
		uploaded++
	}

	s.logger().Info("Images attached", "page_id", pageID, "uploaded", uploaded, "total", len(files))
	return uploaded, nil
}
