package models

import "time"

// User представляет учетную запись пользователя CodeBeamer
type User struct {
	ID                    int        `json:"id,omitempty"`
	Name                  string     `json:"name"`
	Status                string     `json:"status,omitempty"`
	HostName              string     `json:"hostName,omitempty"`
	FirstName             string     `json:"firstName,omitempty"`
	LastName              string     `json:"lastName,omitempty"`
	Title                 string     `json:"title,omitempty"`
	Address               string     `json:"address,omitempty"`
	Zip                   string     `json:"zip,omitempty"`
	City                  string     `json:"city,omitempty"`
	State                 string     `json:"state,omitempty"`
	SourceOfInterest      string     `json:"sourceOfInterest,omitempty"`
	Scc                   string     `json:"scc,omitempty"`
	TeamSize              string     `json:"teamSize,omitempty"`
	DivisionSize          string     `json:"divisionSize,omitempty"`
	Company               string     `json:"company,omitempty"`
	Country               string     `json:"country,omitempty"`
	Email                 string     `json:"email,omitempty"`
	EmailClient           string     `json:"emailClient,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	Mobile                string     `json:"mobile,omitempty"`
	DateFormatPattern     string     `json:"dateFormatPattern,omitempty"`
	DateTimeFormatPattern string     `json:"dateTimeFormatPattern,omitempty"`
	TimeZonePattern       string     `json:"timeZonePattern,omitempty"`
	DownloadLimit         int        `json:"downloadLimit"`
	Browser               string     `json:"browser,omitempty"`
	Skills                string     `json:"skills,omitempty"`
	RegistryDate          *time.Time `json:"registryDate,omitempty"`
	LastLogin             *time.Time `json:"lastLogin,omitempty"`
}

// Ref возвращает ссылку на пользователя.
func (u User) Ref() *Ref {
	return &Ref{ID: u.ID, Name: u.Name}
}
