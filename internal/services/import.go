package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/DevN0mad/cbremote/internal/models"
)

// Importer создает сущности CodeBeamer по таблицам в формате выгрузки.
// Идентификаторы и поля, которые заполняет сервер, игнорируются.
type Importer struct {
	sess   *Session
	logger *slog.Logger

	// DefaultPassword пароль для создаваемых учетных записей.
	DefaultPassword string

	// artifactIDs соответствие идентификаторов из файла созданным артефактам.
	artifactIDs map[int]int
	// options варианты выбора по трекеру и полю.
	options map[optionKey][]models.Ref
}

type optionKey struct {
	trackerID int
	labelID   int
}

// NewImporter создает сервис импорта для открытой сессии.
func NewImporter(sess *Session, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = sess.logger()
	}
	return &Importer{
		sess:        sess,
		logger:      logger,
		artifactIDs: make(map[int]int),
		options:     make(map[optionKey][]models.Ref),
	}
}

// readRows читает таблицу целиком, пропускает заголовок и дополняет
// короткие строки пустыми ячейками до ширины width.
func readRows(in io.Reader, width int) ([][]string, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, nil
}

// ImportUsers создает учетные записи и возвращает число созданных.
func (im *Importer) ImportUsers(ctx context.Context, in io.Reader) (int, error) {
	rows, err := readRows(in, len(UserHeader))
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, v := range rows {
		user := models.User{
			Name:                  v[1],
			Status:                v[2],
			HostName:              v[3],
			FirstName:             v[4],
			LastName:              v[5],
			Title:                 v[6],
			Address:               v[7],
			Zip:                   v[8],
			City:                  v[9],
			State:                 v[10],
			SourceOfInterest:      v[11],
			Scc:                   v[12],
			TeamSize:              v[13],
			DivisionSize:          v[14],
			Company:               v[15],
			Country:               v[16],
			Email:                 v[17],
			EmailClient:           v[18],
			Phone:                 v[19],
			Mobile:                v[20],
			DateFormatPattern:     v[21],
			DateTimeFormatPattern: v[22],
			TimeZonePattern:       v[23],
			DownloadLimit:         -1,
			Browser:               v[25],
			Skills:                v[26],
		}
		if limit := parseInt(v[24]); limit != nil {
			user.DownloadLimit = *limit
		}

		if _, err := im.sess.CreateUser(ctx, user, im.DefaultPassword); err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			im.logger.Error("Failed to import user", "row", i+2, "name", user.Name, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// ImportProjects создает проекты и возвращает число созданных.
func (im *Importer) ImportProjects(ctx context.Context, in io.Reader) (int, error) {
	rows, err := readRows(in, len(ProjectHeader))
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, v := range rows {
		project := models.Project{
			Name:                v[1],
			Description:         v[2],
			DescriptionFormat:   v[3],
			Propagation:         v[4],
			DefaultMemberRoleID: parseInt(v[5]),
			AllowedHost:         v[6],
			UserName:            v[7],
			Password:            v[8],
			StartDate:           parseDate(v[9]),
			EndDate:             parseDate(v[10]),
			CreatedFromHost:     v[13],
			VirtualHost:         v[14],
			Environment:         v[15],
			Category:            v[16],
			Copyright:           v[17],
			NatureLanguage:      v[18],
			DevelopmentLanguage: v[19],
			Status:              v[20],
		}

		if _, err := im.sess.CreateProject(ctx, project); err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			im.logger.Error("Failed to import project", "row", i+2, "name", project.Name, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// ImportArtifacts создает артефакты и возвращает число созданных. Строки
// выгрузки идут от папки к содержимому, поэтому ссылка на родителя,
// созданного этим же импортом, заменяется на его новый идентификатор.
func (im *Importer) ImportArtifacts(ctx context.Context, in io.Reader) (int, error) {
	rows, err := readRows(in, len(ArtifactHeader))
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, v := range rows {
		artifact := models.Artifact{
			Project:           parseRef(v[2]),
			Name:              v[4],
			TypeID:            parsePlainID(v[5]),
			Description:       v[7],
			DescriptionFormat: v[8],
			Owner:             parseRef(v[10]),
			FileSize:          parseLong(v[12]),
			Status:            parseRef(v[13]),
			Notification:      parseInt(v[19]),
			AdditionalInfo: &models.ArtifactAdditionalInfo{
				LockedBy:           parseRef(v[16]),
				PublishedRevision:  parseInt(v[17]),
				KeptHistoryEntries: parseInt(v[18]),
			},
		}
		if parentID := parsePlainID(v[1]); parentID != 0 {
			if mapped, ok := im.artifactIDs[parentID]; ok {
				parentID = mapped
			}
			artifact.Parent = models.NewRef(parentID)
		}

		created, err := im.sess.CreateArtifact(ctx, artifact)
		if err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			im.logger.Error("Failed to import artifact", "row", i+2, "name", artifact.Name, "error", err)
			continue
		}
		if oldID := parsePlainID(v[0]); oldID != 0 {
			im.artifactIDs[oldID] = created.ID
		}
		imported++
	}
	return imported, nil
}

// ImportTrackers создает трекеры и возвращает число созданных.
func (im *Importer) ImportTrackers(ctx context.Context, in io.Reader) (int, error) {
	rows, err := readRows(in, len(TrackerHeader))
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, v := range rows {
		tracker := models.Tracker{
			Type:              parseRef(v[1]),
			Project:           parseRef(v[2]),
			CreatedBy:         parseRef(v[3]),
			Name:              v[4],
			Description:       v[5],
			DescriptionFormat: v[6],
			Visible:           parseBool(v[7]),
		}

		if _, err := im.sess.CreateTracker(ctx, tracker); err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			im.logger.Error("Failed to import tracker", "row", i+2, "name", tracker.Name, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// ImportTrackerItems создает задачи и возвращает число созданных. Поля
// выбора сопоставляются с вариантами трекера по идентификатору; вариант,
// которого нет у трекера, записывается в лог и не заполняется.
func (im *Importer) ImportTrackerItems(ctx context.Context, in io.Reader) (int, error) {
	rows, err := readRows(in, len(TrackerItemHeader))
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, v := range rows {
		item, err := im.trackerItemFromRow(ctx, v)
		if err == nil {
			_, err = im.sess.CreateTrackerItem(ctx, item)
		}
		if err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			im.logger.Error("Failed to import tracker item", "row", i+2, "summary", v[16], "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

func (im *Importer) trackerItemFromRow(ctx context.Context, v []string) (models.TrackerItem, error) {
	trackerID := parseRefID(v[1])
	if trackerID == 0 {
		return models.TrackerItem{}, fmt.Errorf("tracker column %q has no id", v[1])
	}

	item := models.TrackerItem{
		Tracker:           models.NewRef(trackerID),
		Status:            parseRef(v[8]),
		Priority:          parseInt(v[10]),
		Submitter:         parseRef(v[11]),
		ModifiedAt:        parseDate(v[12]),
		AssignedAt:        parseDate(v[13]),
		SubmittedAt:       parseDate(v[14]),
		ClosedAt:          parseDate(v[15]),
		Name:              v[16],
		Description:       v[17],
		DescriptionFormat: v[18],
		StartDate:         parseDate(v[19]),
		EndDate:           parseDate(v[20]),
		Template:          parseRef(v[23]),
		EstimatedMillis:   parseLong(v[25]),
		SpentMillis:       parseLong(v[26]),
	}
	if ref := parseRef(v[2]); ref != nil {
		item.AssignedTo = []models.Ref{*ref}
	}
	if ref := parseRef(v[5]); ref != nil {
		item.Supervisors = []models.Ref{*ref}
	}

	choices := []struct {
		column int
		label  int
		name   string
		dst    *[]models.Ref
	}{
		{3, models.LabelMilestones, "milestones", &item.Milestones},
		{4, models.LabelVersion, "versions", &item.Versions},
		{6, models.LabelPlatform, "platforms", &item.Platforms},
		{7, models.LabelSubject, "subjects", &item.Subjects},
		{9, models.LabelCategory, "categories", &item.Categories},
		{21, models.LabelResolution, "resolutions", &item.Resolutions},
		{22, models.LabelSeverity, "severities", &item.Severities},
	}
	for _, c := range choices {
		id := parseRefID(v[c.column])
		if id == 0 {
			continue
		}
		option, err := im.findOption(ctx, trackerID, c.label, id)
		if err != nil {
			return models.TrackerItem{}, err
		}
		if option == nil {
			im.logger.Warn("Option not found", "field", c.name, "option_id", id, "tracker_id", trackerID)
			continue
		}
		*c.dst = []models.Ref{*option}
	}

	return item, nil
}

// findOption возвращает вариант выбора поля трекера или nil, если его нет.
// Варианты запрашиваются один раз на трекер и поле.
func (im *Importer) findOption(ctx context.Context, trackerID, labelID, optionID int) (*models.Ref, error) {
	key := optionKey{trackerID: trackerID, labelID: labelID}
	options, ok := im.options[key]
	if !ok {
		var err error
		options, err = im.sess.FindTrackerChoiceOptions(ctx, trackerID, labelID)
		if err != nil {
			return nil, fmt.Errorf("list options of tracker %d field %d: %w", trackerID, labelID, err)
		}
		im.options[key] = options
	}

	for _, o := range options {
		if o.ID == optionID {
			return &o, nil
		}
	}
	return nil, nil
}
