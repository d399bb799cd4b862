package services

import (
	"context"
	"fmt"

	"github.com/DevN0mad/cbremote/internal/models"
)

// Session открытая сессия удаленного API. Токен сессии передается
// первым параметром каждого вызова.
type Session struct {
	svc   *CodeBeamerService
	token string

	// Info сведения о сервере, полученные при входе.
	Info models.ServerInfo
}

// Close завершает сессию. Повторный вызов ничего не делает.
func (s *Session) Close(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	err := s.call(ctx, "logout", nil)
	s.token = ""
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Banner возвращает строку с версией сервера.
func (s *Session) Banner() string {
	i := s.Info
	return fmt.Sprintf("CodeBeamer %s%s (%s) running on %s/Java %s", i.MajorVersion, i.MinorVersion, i.BuildDate, i.OS, i.JavaVersion)
}

func (s *Session) call(ctx context.Context, method string, result any, params ...any) error {
	if s.token == "" {
		return fmt.Errorf("%s: %w", method, ErrNotConnected)
	}
	return s.svc.call(ctx, method, append([]any{s.token}, params...), result)
}

// SessionUser возвращает пользователя, под которым открыта сессия.
func (s *Session) SessionUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := s.call(ctx, "getSessionUser", &user)
	return user, err
}

// FindAllUsers возвращает все доступные учетные записи.
func (s *Session) FindAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.call(ctx, "findAllUsers", &users)
	return users, err
}

// CreateUser создает учетную запись.
func (s *Session) CreateUser(ctx context.Context, user models.User, password string) (models.User, error) {
	var created *models.User
	if err := s.call(ctx, "createUser", &created, user, password); err != nil {
		return models.User{}, err
	}
	if created == nil {
		return models.User{}, fmt.Errorf("createUser: empty result")
	}
	return *created, nil
}

// FindAllProjects возвращает все доступные проекты.
func (s *Session) FindAllProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.call(ctx, "findAllProjects", &projects)
	return projects, err
}

// FindProjectByName ищет проект по имени на стороне сервера.
func (s *Session) FindProjectByName(ctx context.Context, name string) (models.Project, error) {
	var project *models.Project
	if err := s.call(ctx, "findProjectByName", &project, name); err != nil {
		return models.Project{}, err
	}
	if project == nil {
		return models.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	return *project, nil
}

// CreateProject создает проект.
func (s *Session) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	var created *models.Project
	if err := s.call(ctx, "createProject", &created, project); err != nil {
		return models.Project{}, err
	}
	if created == nil {
		return models.Project{}, fmt.Errorf("createProject: empty result")
	}
	return *created, nil
}

// FindTopArtifactsByProject возвращает артефакты корня проекта.
func (s *Session) FindTopArtifactsByProject(ctx context.Context, projectID int) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	err := s.call(ctx, "findTopArtifactsByProject", &artifacts, projectID)
	return artifacts, err
}

// FindArtifactsByParentArtifact возвращает дочерние артефакты папки.
func (s *Session) FindArtifactsByParentArtifact(ctx context.Context, artifactID int) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	err := s.call(ctx, "findArtifactsByParentArtifact", &artifacts, artifactID)
	return artifacts, err
}

// GetArtifactBody скачивает содержимое артефакта.
func (s *Session) GetArtifactBody(ctx context.Context, artifactID int) (*models.BinaryStream, error) {
	var body *models.BinaryStream
	if err := s.call(ctx, "getArtifactBody", &body, artifactID); err != nil {
		return nil, err
	}
	return body, nil
}

// CreateArtifact создает артефакт без содержимого.
func (s *Session) CreateArtifact(ctx context.Context, artifact models.Artifact) (models.Artifact, error) {
	var created *models.Artifact
	if err := s.call(ctx, "createArtifact", &created, artifact); err != nil {
		return models.Artifact{}, err
	}
	if created == nil {
		return models.Artifact{}, fmt.Errorf("createArtifact: empty result")
	}
	return *created, nil
}

// CreateArtifactWithBody создает артефакт вместе с содержимым.
func (s *Session) CreateArtifactWithBody(ctx context.Context, artifact models.Artifact, body *models.BinaryStream) (models.Artifact, error) {
	var created *models.Artifact
	if err := s.call(ctx, "createArtifactWithBody", &created, artifact, body); err != nil {
		return models.Artifact{}, err
	}
	if created == nil {
		return models.Artifact{}, fmt.Errorf("createArtifactWithBody: empty result")
	}
	return *created, nil
}

// UpdateArtifactBody загружает новую ревизию содержимого артефакта.
func (s *Session) UpdateArtifactBody(ctx context.Context, artifactID int, body *models.BinaryStream, comment string) error {
	return s.call(ctx, "updateArtifactBody", nil, artifactID, body, comment)
}

// FindAllTrackers возвращает все доступные трекеры.
func (s *Session) FindAllTrackers(ctx context.Context) ([]models.Tracker, error) {
	var trackers []models.Tracker
	err := s.call(ctx, "findAllTrackers", &trackers)
	return trackers, err
}

// FindTrackersByProject возвращает трекеры проекта.
func (s *Session) FindTrackersByProject(ctx context.Context, projectID int) ([]models.Tracker, error) {
	var trackers []models.Tracker
	err := s.call(ctx, "findTrackersByProject", &trackers, projectID)
	return trackers, err
}

// CreateTracker создает трекер.
func (s *Session) CreateTracker(ctx context.Context, tracker models.Tracker) (models.Tracker, error) {
	var created *models.Tracker
	if err := s.call(ctx, "createTracker", &created, tracker); err != nil {
		return models.Tracker{}, err
	}
	if created == nil {
		return models.Tracker{}, fmt.Errorf("createTracker: empty result")
	}
	return *created, nil
}

// FindTrackerItemsByTrackerID возвращает задачи трекера.
func (s *Session) FindTrackerItemsByTrackerID(ctx context.Context, trackerID int) ([]models.TrackerItem, error) {
	var items []models.TrackerItem
	err := s.call(ctx, "findTrackerItemsByTrackerId", &items, trackerID)
	return items, err
}

// FindAllUserTrackerItems возвращает задачи текущего пользователя.
func (s *Session) FindAllUserTrackerItems(ctx context.Context) ([]models.TrackerItem, error) {
	var items []models.TrackerItem
	err := s.call(ctx, "findAllUserTrackerItems", &items)
	return items, err
}

// FindTrackerChoiceOptions возвращает варианты выбора поля трекера.
func (s *Session) FindTrackerChoiceOptions(ctx context.Context, trackerID, labelID int) ([]models.Ref, error) {
	var options []models.Ref
	err := s.call(ctx, "findTrackerChoiceOptions", &options, trackerID, labelID)
	return options, err
}

// CreateTrackerItem создает задачу.
func (s *Session) CreateTrackerItem(ctx context.Context, item models.TrackerItem) (models.TrackerItem, error) {
	var created *models.TrackerItem
	if err := s.call(ctx, "createTrackerItem", &created, item); err != nil {
		return models.TrackerItem{}, err
	}
	if created == nil {
		return models.TrackerItem{}, fmt.Errorf("createTrackerItem: empty result")
	}
	return *created, nil
}

// UpdateTrackerItem сохраняет изменения задачи.
func (s *Session) UpdateTrackerItem(ctx context.Context, item models.TrackerItem) (models.TrackerItem, error) {
	var updated *models.TrackerItem
	if err := s.call(ctx, "updateTrackerItem", &updated, item); err != nil {
		return models.TrackerItem{}, err
	}
	if updated == nil {
		return item, nil
	}
	return *updated, nil
}

// AddTrackerItemAttachment прикрепляет файл к задаче.
func (s *Session) AddTrackerItemAttachment(ctx context.Context, itemID int, attachment models.Artifact, body *models.BinaryStream) (models.TrackerItem, error) {
	var item *models.TrackerItem
	if err := s.call(ctx, "addTrackerItemAttachment", &item, itemID, attachment, body); err != nil {
		return models.TrackerItem{}, err
	}
	if item == nil {
		return models.TrackerItem{}, fmt.Errorf("tracker item %d: %w", itemID, ErrNotFound)
	}
	return *item, nil
}

// FindWikiPageByID возвращает вики-страницу по идентификатору.
func (s *Session) FindWikiPageByID(ctx context.Context, pageID int) (models.WikiPage, error) {
	var page *models.WikiPage
	if err := s.call(ctx, "findWikiPageById", &page, pageID); err != nil {
		return models.WikiPage{}, err
	}
	if page == nil {
		return models.WikiPage{}, fmt.Errorf("wiki page %d: %w", pageID, ErrNotFound)
	}
	return *page, nil
}

// FindTopWikiPagesByProject возвращает корневые вики-страницы проекта.
func (s *Session) FindTopWikiPagesByProject(ctx context.Context, projectID int) ([]models.WikiPage, error) {
	var pages []models.WikiPage
	err := s.call(ctx, "findTopWikiPagesByProject", &pages, projectID)
	return pages, err
}

// CreateWikiPage создает вики-страницу с содержимым.
func (s *Session) CreateWikiPage(ctx context.Context, page models.WikiPage, content, comment, format string) (models.WikiPage, error) {
	var created *models.WikiPage
	if err := s.call(ctx, "createWikiPage", &created, page, content, comment, format); err != nil {
		return models.WikiPage{}, err
	}
	if created == nil {
		return models.WikiPage{}, fmt.Errorf("createWikiPage: empty result")
	}
	return *created, nil
}

// FindAllAssociations возвращает все связи.
func (s *Session) FindAllAssociations(ctx context.Context) ([]models.Association, error) {
	var associations []models.Association
	err := s.call(ctx, "findAllAssociations", &associations)
	return associations, err
}
