package models

// WikiPage представляет вики-страницу проекта
type WikiPage struct {
	ID          int    `json:"id,omitempty"`
	Project     *Ref   `json:"project,omitempty"`
	Parent      *Ref   `json:"parent,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Ref возвращает ссылку на страницу.
func (w WikiPage) Ref() *Ref {
	return &Ref{ID: w.ID, Name: w.Name}
}
