package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/DevN0mad/cbremote/internal/models"
)

// Заголовки выгрузки. Порядок колонок совпадает с порядком ячеек в строках
// и с индексами, по которым читает импорт.
var (
	UserHeader = []string{
		"id", "name", "status", "hostName", "firstName", "lastName", "title", "address", "zip", "city",
		"state", "sourceOfInterest", "scc", "teamSize", "divisionSize", "company", "country", "email",
		"emailClient", "phone", "mobile", "dateFormatPattern", "dateTimeFormatPattern", "timeZonePattern",
		"downloadLimit", "browser", "skills", "registryDate", "lastLogin",
	}
	ProjectHeader = []string{
		"id", "name", "description", "descriptionFormat", "propagation", "defaultMemberRoleId",
		"allowedHost", "userName", "password", "startDate", "endDate", "createdAt", "createdBy",
		"createdFromHost", "virtualHost", "environment", "category", "copyright", "natureLanguage",
		"developmentLanguage", "status",
	}
	ArtifactHeader = []string{
		"id", "parent", "project", "deleted", "name", "type", "scopeName", "description",
		"descriptionFormat", "createdAt", "owner", "version", "fileSize", "status", "lastModifiedAt",
		"lastModifiedBy", "lockedBy", "publishedRevision", "keptHistoryEntries", "notification",
	}
	TrackerHeader = []string{
		"id", "type", "project", "createdBy", "name", "description", "descriptionFormat", "visible", "createdAt",
	}
	TrackerItemHeader = []string{
		"id", "tracker", "assignedTo", "milestones", "versions", "supervisors", "platforms", "OSes",
		"status", "categories", "priority", "submitter", "modifiedAt", "assignedAt", "submittedAt",
		"closedAt", "summary", "description", "descriptionFormat", "startDate", "endDate", "resolutions",
		"severities", "template", "deleted", "estimatedMillis", "spentMillis",
	}
)

// rowWriter приемник строк выгрузки: CSV файл или лист книги.
type rowWriter interface {
	WriteRow(cells []string) error
}

type csvRows struct {
	w *csv.Writer
}

func (c csvRows) WriteRow(cells []string) error {
	return c.w.Write(cells)
}

// Exporter выгружает данные CodeBeamer в таблицы.
type Exporter struct {
	sess   *Session
	logger *slog.Logger
}

// NewExporter создает сервис выгрузки для открытой сессии.
func NewExporter(sess *Session, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = sess.logger()
	}
	return &Exporter{sess: sess, logger: logger}
}

// exportCSV пишет таблицу в CSV и возвращает число выгруженных строк
// без заголовка. При ошибке возвращается число строк, выгруженных до нее.
func exportCSV(w io.Writer, fn func(rowWriter) (int, error)) (int, error) {
	cw := csv.NewWriter(w)
	n, err := fn(csvRows{w: cw})
	cw.Flush()
	if err != nil {
		return n, err
	}
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("write csv: %w", err)
	}
	return n, nil
}

// ExportUsers выгружает все доступные учетные записи.
func (e *Exporter) ExportUsers(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.users(ctx, rw) })
}

// ExportProjects выгружает все доступные проекты.
func (e *Exporter) ExportProjects(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.projects(ctx, rw) })
}

// ExportArtifacts выгружает артефакты всех проектов вместе с вложенными.
func (e *Exporter) ExportArtifacts(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.artifacts(ctx, rw) })
}

// ExportTrackers выгружает все доступные трекеры.
func (e *Exporter) ExportTrackers(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.trackers(ctx, rw) })
}

// ExportTrackerItems выгружает задачи всех трекеров.
func (e *Exporter) ExportTrackerItems(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.trackerItems(ctx, rw) })
}

// ExportUserTrackerItems выгружает задачи текущего пользователя.
func (e *Exporter) ExportUserTrackerItems(ctx context.Context, w io.Writer) (int, error) {
	return exportCSV(w, func(rw rowWriter) (int, error) { return e.userTrackerItems(ctx, rw) })
}

func (e *Exporter) users(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(UserHeader); err != nil {
		return 0, err
	}

	users, err := e.sess.FindAllUsers(ctx)
	if err != nil {
		e.logger.Error("Couldn't get accounts", "error", err)
		return 0, fmt.Errorf("list users: %w", err)
	}

	exported := 0
	for _, u := range users {
		if err := rw.WriteRow(userRow(u)); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func (e *Exporter) projects(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(ProjectHeader); err != nil {
		return 0, err
	}

	projects, err := e.sess.FindAllProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	exported := 0
	for _, p := range projects {
		if err := rw.WriteRow(projectRow(p)); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func (e *Exporter) artifacts(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(ArtifactHeader); err != nil {
		return 0, err
	}

	return e.sess.WalkProjectArtifacts(ctx, func(a models.Artifact, _ int) error {
		return rw.WriteRow(artifactRow(a))
	})
}

func (e *Exporter) trackers(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(TrackerHeader); err != nil {
		return 0, err
	}

	trackers, err := e.sess.FindAllTrackers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trackers: %w", err)
	}

	exported := 0
	for _, t := range trackers {
		if err := rw.WriteRow(trackerRow(t)); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func (e *Exporter) trackerItems(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(TrackerItemHeader); err != nil {
		return 0, err
	}

	trackers, err := e.sess.FindAllTrackers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trackers: %w", err)
	}

	exported := 0
	for _, t := range trackers {
		items, err := e.sess.FindTrackerItemsByTrackerID(ctx, t.ID)
		if err != nil {
			return exported, fmt.Errorf("list items of tracker %d: %w", t.ID, err)
		}
		for _, item := range items {
			if err := rw.WriteRow(trackerItemRow(item)); err != nil {
				return exported, err
			}
			exported++
		}
	}
	return exported, nil
}

func (e *Exporter) userTrackerItems(ctx context.Context, rw rowWriter) (int, error) {
	if err := rw.WriteRow(TrackerItemHeader); err != nil {
		return 0, err
	}

	items, err := e.sess.FindAllUserTrackerItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list user items: %w", err)
	}

	exported := 0
	for _, item := range items {
		if err := rw.WriteRow(trackerItemRow(item)); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func userRow(u models.User) []string {
	return []string{
		formatID(u.ID),
		u.Name,
		u.Status,
		u.HostName,
		u.FirstName,
		u.LastName,
		u.Title,
		u.Address,
		u.Zip,
		u.City,
		u.State,
		u.SourceOfInterest,
		u.Scc,
		u.TeamSize,
		u.DivisionSize,
		u.Company,
		u.Country,
		u.Email,
		u.EmailClient,
		u.Phone,
		u.Mobile,
		u.DateFormatPattern,
		u.DateTimeFormatPattern,
		u.TimeZonePattern,
		formatInt(&u.DownloadLimit),
		u.Browser,
		u.Skills,
		formatDate(u.RegistryDate),
		formatDate(u.LastLogin),
	}
}

func projectRow(p models.Project) []string {
	return []string{
		formatID(p.ID),
		p.Name,
		p.Description,
		p.DescriptionFormat,
		p.Propagation,
		formatInt(p.DefaultMemberRoleID),
		p.AllowedHost,
		p.UserName,
		p.Password,
		formatDate(p.StartDate),
		formatDate(p.EndDate),
		formatDate(p.CreatedAt),
		formatRef(p.CreatedBy),
		p.CreatedFromHost,
		p.VirtualHost,
		p.Environment,
		p.Category,
		p.Copyright,
		p.NatureLanguage,
		p.DevelopmentLanguage,
		p.Status,
	}
}

func artifactRow(a models.Artifact) []string {
	deleted := a.Deleted
	row := []string{
		formatID(a.ID),
		"",
		formatRef(a.Project),
		formatBool(&deleted),
		a.Name,
		formatID(a.TypeID),
		a.ScopeName,
		a.Description,
		a.DescriptionFormat,
		formatDate(a.CreatedAt),
		formatRef(a.Owner),
		formatInt(a.Version),
		formatLong(a.FileSize),
		formatRef(a.Status),
		formatDate(a.LastModifiedAt),
		formatRef(a.LastModifiedBy),
		"",
		"",
		"",
		formatInt(a.Notification),
	}
	if a.Parent != nil {
		row[1] = formatID(a.Parent.ID)
	}
	if info := a.AdditionalInfo; info != nil {
		row[16] = formatRef(info.LockedBy)
		row[17] = formatInt(info.PublishedRevision)
		row[18] = formatInt(info.KeptHistoryEntries)
	}
	return row
}

func trackerRow(t models.Tracker) []string {
	return []string{
		formatID(t.ID),
		formatRef(t.Type),
		formatRef(t.Project),
		formatRef(t.CreatedBy),
		t.Name,
		t.Description,
		t.DescriptionFormat,
		formatBool(t.Visible),
		formatDate(t.CreatedAt),
	}
}

func trackerItemRow(item models.TrackerItem) []string {
	deleted := item.Deleted
	return []string{
		formatID(item.ID),
		formatRef(item.Tracker),
		formatRefList(item.AssignedTo),
		formatRefList(item.Milestones),
		formatRefList(item.Versions),
		formatRefList(item.Supervisors),
		formatRefList(item.Platforms),
		formatRefList(item.Subjects),
		formatRef(item.Status),
		formatRefList(item.Categories),
		formatInt(item.Priority),
		formatRef(item.Submitter),
		formatDate(item.ModifiedAt),
		formatDate(item.AssignedAt),
		formatDate(item.SubmittedAt),
		formatDate(item.ClosedAt),
		item.Name,
		item.Description,
		item.DescriptionFormat,
		formatDate(item.StartDate),
		formatDate(item.EndDate),
		formatRefList(item.Resolutions),
		formatRefList(item.Severities),
		formatRef(item.Template),
		formatBool(&deleted),
		formatLong(item.EstimatedMillis),
		formatLong(item.SpentMillis),
	}
}
