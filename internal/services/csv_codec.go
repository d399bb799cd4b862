package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/DevN0mad/cbremote/internal/models"
)

// DateLayout формат дат в выгрузках.
const DateLayout = "2006.01.02 15:04:05"

// Кодирование ячеек выгрузки. Отсутствующее значение всегда пустая ячейка.

func formatID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatLong(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatDate(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.In(time.Local).Format(DateLayout)
}

// formatRef кодирует ссылку как "id;name".
func formatRef(r *models.Ref) string {
	if r == nil || r.ID == 0 {
		return ""
	}
	return strconv.Itoa(r.ID) + ";" + r.Name
}

// formatRefList кодирует только первый элемент списка: сервер возвращает
// не больше одного значения для таких полей.
func formatRefList(refs []models.Ref) string {
	if len(refs) == 0 {
		return ""
	}
	return formatRef(&refs[0])
}

// Разбор ячеек. Значение, которое не удалось разобрать, считается отсутствующим.

// parseRefID возвращает идентификатор из ячейки "id;name" или 0.
func parseRefID(cell string) int {
	idx := strings.IndexByte(cell, ';')
	if idx < 0 {
		return 0
	}
	id, err := strconv.Atoi(strings.TrimSpace(cell[:idx]))
	if err != nil {
		return 0
	}
	return id
}

func parseRef(cell string) *models.Ref {
	id := parseRefID(cell)
	if id == 0 {
		return nil
	}
	return &models.Ref{ID: id, Name: cell[strings.IndexByte(cell, ';')+1:]}
}

func parsePlainID(cell string) int {
	id, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}
	return id
}

func parseInt(cell string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return nil
	}
	return &v
}

func parseLong(cell string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(cell string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(cell))
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(cell string) *time.Time {
	if cell == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(cell), time.Local)
	if err != nil {
		return nil
	}
	return &t
}
