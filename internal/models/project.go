package models

import "time"

// Project представляет проект в CodeBeamer
type Project struct {
	ID                  int        `json:"id,omitempty"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	DescriptionFormat   string     `json:"descriptionFormat,omitempty"`
	Propagation         string     `json:"propagation,omitempty"`
	DefaultMemberRoleID *int       `json:"defaultMemberRoleId,omitempty"`
	AllowedHost         string     `json:"allowedHost,omitempty"`
	UserName            string     `json:"userName,omitempty"`
	Password            string     `json:"password,omitempty"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
	CreatedBy           *Ref       `json:"createdBy,omitempty"`
	CreatedFromHost     string     `json:"createdFromHost,omitempty"`
	VirtualHost         string     `json:"virtualHost,omitempty"`
	Environment         string     `json:"environment,omitempty"`
	Category            string     `json:"category,omitempty"`
	Copyright           string     `json:"copyright,omitempty"`
	NatureLanguage      string     `json:"natureLanguage,omitempty"`
	DevelopmentLanguage string     `json:"developmentLanguage,omitempty"`
	Status              string     `json:"status,omitempty"`
}

// Ref возвращает ссылку на проект.
func (p Project) Ref() *Ref {
	return &Ref{ID: p.ID, Name: p.Name}
}
