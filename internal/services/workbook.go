package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Листы книги выгрузки.
const (
	SheetUsers            = "Users"
	SheetProjects         = "Projects"
	SheetArtifacts        = "Artifacts"
	SheetTrackers         = "Trackers"
	SheetTrackerItems     = "Tracker items"
	SheetUserTrackerItems = "User tracker items"
)

// WorkbookSummary число выгруженных строк по листам.
type WorkbookSummary map[string]int

// sheetRows пишет строки на лист книги подряд, начиная с первой.
type sheetRows struct {
	f     *excelize.File
	sheet string
	row   int
}

func (s *sheetRows) WriteRow(cells []string) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.sheet, cell, &cells)
}

// BuildWorkbook собирает книгу со всеми таблицами выгрузки. Ошибка
// отдельного листа записывается в лог, остальные листы выгружаются.
func (e *Exporter) BuildWorkbook(ctx context.Context) (*excelize.File, WorkbookSummary, error) {
	f := excelize.NewFile()
	summary := WorkbookSummary{}

	sheets := []struct {
		name   string
		header []string
		fill   func(context.Context, rowWriter) (int, error)
	}{
		{SheetUsers, UserHeader, e.users},
		{SheetProjects, ProjectHeader, e.projects},
		{SheetArtifacts, ArtifactHeader, e.artifacts},
		{SheetTrackers, TrackerHeader, e.trackers},
		{SheetTrackerItems, TrackerItemHeader, e.trackerItems},
		{SheetUserTrackerItems, TrackerItemHeader, e.userTrackerItems},
	}

	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.name); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("create sheet %q: %w", sh.name, err)
		}

		n, err := sh.fill(ctx, &sheetRows{f: f, sheet: sh.name})
		summary[sh.name] = n
		if err != nil {
			if ctx.Err() != nil {
				f.Close()
				return nil, nil, ctx.Err()
			}
			e.logger.Error("Failed to export sheet", "sheet", sh.name, "exported", n, "error", err)
		}

		for i := range sh.header {
			colName, _ := excelize.ColumnNumberToName(i + 1)
			f.SetColWidth(sh.name, colName, colName, 20)
		}
	}

	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetProjects); err == nil {
		f.SetActiveSheet(idx)
	}

	e.logger.Info("Workbook built", "sheets", len(sheets), "summary", summary)
	return f, summary, nil
}

// WriteWorkbook пишет книгу выгрузки в w.
func (e *Exporter) WriteWorkbook(ctx context.Context, w io.Writer) (WorkbookSummary, error) {
	f, summary, err := e.BuildWorkbook(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return summary, fmt.Errorf("write workbook: %w", err)
	}
	return summary, nil
}

// SaveWorkbook сохраняет книгу выгрузки в файл path.
func (e *Exporter) SaveWorkbook(ctx context.Context, path string) (WorkbookSummary, error) {
	f, summary, err := e.BuildWorkbook(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e.logger.Info("Saving workbook", "path", path)
	if err := f.SaveAs(path); err != nil {
		return summary, fmt.Errorf("save workbook %q: %w", path, err)
	}
	return summary, nil
}
