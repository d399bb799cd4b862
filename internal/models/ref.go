package models

// Ref ссылка на именованную сущность CodeBeamer: пользователя, проект,
// трекер, статус или вариант выбора.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// NewRef возвращает ссылку на сущность с указанным идентификатором.
func NewRef(id int) *Ref {
	return &Ref{ID: id}
}
