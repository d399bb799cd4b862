package models

import "time"

// Идентификаторы полей трекера, для которых сервер хранит варианты выбора.
const (
	LabelMilestones = 7
	LabelVersion    = 8
	LabelPlatform   = 9
	LabelSubject    = 10
	LabelCategory   = 11
	LabelResolution = 12
	LabelSeverity   = 13
)

// DescriptionFormatWiki формат описания в вики-разметке.
const DescriptionFormatWiki = "W"

// DescriptionFormatPlain формат описания простым текстом.
const DescriptionFormatPlain = "T"

// Tracker представляет трекер задач проекта
type Tracker struct {
	ID                int        `json:"id,omitempty"`
	Type              *Ref       `json:"type,omitempty"`
	Project           *Ref       `json:"project,omitempty"`
	CreatedBy         *Ref       `json:"createdBy,omitempty"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	DescriptionFormat string     `json:"descriptionFormat,omitempty"`
	Visible           *bool      `json:"visible,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
}

// Ref возвращает ссылку на трекер.
func (t Tracker) Ref() *Ref {
	return &Ref{ID: t.ID, Name: t.Name}
}

// TrackerItem представляет задачу трекера
type TrackerItem struct {
	ID                int        `json:"id,omitempty"`
	Tracker           *Ref       `json:"tracker,omitempty"`
	AssignedTo        []Ref      `json:"assignedTo,omitempty"`
	Milestones        []Ref      `json:"milestones,omitempty"`
	Versions          []Ref      `json:"versions,omitempty"`
	Supervisors       []Ref      `json:"supervisors,omitempty"`
	Platforms         []Ref      `json:"platforms,omitempty"`
	Subjects          []Ref      `json:"subjects,omitempty"`
	Status            *Ref       `json:"status,omitempty"`
	Categories        []Ref      `json:"categories,omitempty"`
	Priority          *int       `json:"priority,omitempty"`
	Submitter         *Ref       `json:"submitter,omitempty"`
	ModifiedAt        *time.Time `json:"modifiedAt,omitempty"`
	AssignedAt        *time.Time `json:"assignedAt,omitempty"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	ClosedAt          *time.Time `json:"closedAt,omitempty"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	DescriptionFormat string     `json:"descriptionFormat,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	Resolutions       []Ref      `json:"resolutions,omitempty"`
	Severities        []Ref      `json:"severities,omitempty"`
	Template          *Ref       `json:"template,omitempty"`
	Deleted           bool       `json:"deleted,omitempty"`
	EstimatedMillis   *int64     `json:"estimatedMillis,omitempty"`
	SpentMillis       *int64     `json:"spentMillis,omitempty"`
}

// Association связь между двумя сущностями CodeBeamer.
type Association struct {
	ID          int    `json:"id"`
	Type        Ref    `json:"type"`
	From        *Ref   `json:"from,omitempty"`
	To          *Ref   `json:"to,omitempty"`
	Description string `json:"description,omitempty"`
}
