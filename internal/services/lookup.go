package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DevN0mad/cbremote/internal/models"
	"github.com/DevN0mad/cbremote/internal/tree"
)

// ArtifactSource иерархия артефактов проекта, дочерние папки которой
// запрашиваются у сервера по мере обхода.
type ArtifactSource struct {
	sess *Session
}

// NewArtifactSource создает источник иерархии артефактов для сессии.
func NewArtifactSource(sess *Session) ArtifactSource {
	return ArtifactSource{sess: sess}
}

func (a ArtifactSource) Children(ctx context.Context, artifact models.Artifact) ([]models.Artifact, error) {
	return a.sess.FindArtifactsByParentArtifact(ctx, artifact.ID)
}

func (a ArtifactSource) IsContainer(artifact models.Artifact) bool {
	return artifact.IsDirectory()
}

func (a ArtifactSource) Key(artifact models.Artifact) (string, bool) {
	if artifact.ID == 0 {
		return "", false
	}
	return strconv.Itoa(artifact.ID), true
}

// FindProjectByName возвращает проект с точным совпадением имени.
func FindProjectByName(projects []models.Project, name string) (models.Project, error) {
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
}

// ProjectByName ищет проект по имени среди всех доступных проектов.
func (s *Session) ProjectByName(ctx context.Context, name string) (models.Project, error) {
	projects, err := s.FindAllProjects(ctx)
	if err != nil {
		return models.Project{}, fmt.Errorf("list projects: %w", err)
	}
	return FindProjectByName(projects, name)
}

// FindArtifactByName ищет артефакт с указанным именем в иерархии,
// начиная с roots. Возвращается первое совпадение при обходе в глубину.
func (s *Session) FindArtifactByName(ctx context.Context, roots []models.Artifact, name string) (models.Artifact, error) {
	var found *models.Artifact
	_, err := tree.Walk(ctx, NewArtifactSource(s), roots, func(a models.Artifact, _ int) error {
		if a.Name == name {
			found = &a
			return tree.SkipAll
		}
		return nil
	})
	if err != nil {
		return models.Artifact{}, fmt.Errorf("search artifact %q: %w", name, err)
	}
	if found == nil {
		return models.Artifact{}, fmt.Errorf("artifact %q: %w", name, ErrNotFound)
	}
	return *found, nil
}

// WalkProjectArtifacts обходит артефакты всех проектов и возвращает число
// посещенных артефактов.
func (s *Session) WalkProjectArtifacts(ctx context.Context, visit tree.VisitFunc[models.Artifact]) (int, error) {
	projects, err := s.FindAllProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	stopped := false
	guarded := func(a models.Artifact, depth int) error {
		err := visit(a, depth)
		if errors.Is(err, tree.SkipAll) {
			stopped = true
		}
		return err
	}

	total := 0
	src := NewArtifactSource(s)
	for _, project := range projects {
		top, err := s.FindTopArtifactsByProject(ctx, project.ID)
		if err != nil {
			return total, fmt.Errorf("list artifacts of project %d: %w", project.ID, err)
		}

		n, err := tree.Walk(ctx, src, top, guarded)
		total += n
		if err != nil {
			return total, err
		}
		// SkipAll завершает обход всех проектов, а не только текущего
		if stopped {
			break
		}
	}
	return total, nil
}

// FindTrackerByName возвращает трекер проекта без учета регистра имени.
func (s *Session) FindTrackerByName(ctx context.Context, projectName, trackerName string) (models.Tracker, error) {
	project, err := s.FindProjectByName(ctx, projectName)
	if err != nil {
		return models.Tracker{}, err
	}

	trackers, err := s.FindTrackersByProject(ctx, project.ID)
	if err != nil {
		return models.Tracker{}, fmt.Errorf("list trackers of project %q: %w", projectName, err)
	}

	for _, t := range trackers {
		if strings.EqualFold(t.Name, trackerName) {
			return t, nil
		}
	}
	return models.Tracker{}, fmt.Errorf("tracker %q in project %q: %w", trackerName, projectName, ErrNotFound)
}
