// Package export renders scraped match reports into xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/xuri/excelize/v2"

	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MetadataSheet   = "Metadata"

	filePrefix      = "fbref_report_"
	timestampLayout = "20060102_150405"
	defaultSheet    = "Sheet1"
)

// ExcelWriter writes one workbook per report into a directory.
type ExcelWriter struct {
	dir    string
	now    func() time.Time
	logger *logging.Logger
}

func NewExcelWriter(dir string, logger *logging.Logger) *ExcelWriter {
	if logger == nil {
		logger = logging.Default()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = filepath.Join("data", "exports")
	}
	return &ExcelWriter{
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
}

func (w *ExcelWriter) Dir() string {
	return w.dir
}

// WriteMatchReport renders the metadata sheet, one sheet per side table and
// one sheet per player table, and returns the path of the written file.
func (w *ExcelWriter) WriteMatchReport(
	ctx context.Context,
	taskID string,
	record matchreport.Record,
	players []matchreport.PlayerData,
) (string, error) {
	generatedAt := w.now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.WarnContext(ctx, "close workbook failed", "task_id", taskID, "error", err)
		}
	}()

	if err := f.SetSheetName(defaultSheet, MetadataSheet); err != nil {
		return "", crerr.Wrap(err, "rename metadata sheet")
	}
	names := newSheetNamer(MetadataSheet)
	if err := writeRows(f, MetadataSheet, metadataRows(taskID, record.Info, generatedAt)); err != nil {
		return "", crerr.Wrap(err, "write metadata sheet")
	}

	sheets := 1
	addTable := func(rawName string, table matchreport.Table) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := names.next(rawName)
		if _, err := f.NewSheet(name); err != nil {
			return crerr.Wrapf(err, "create sheet %q", name)
		}
		if err := writeRows(f, name, tableRows(table)); err != nil {
			return crerr.Wrapf(err, "write sheet %q", name)
		}
		sheets++
		return nil
	}

	for _, sheet := range record.Home {
		if err := addTable("Home_"+sheet.Name, sheet.Table); err != nil {
			return "", err
		}
	}
	for _, sheet := range record.Away {
		if err := addTable("Away_"+sheet.Name, sheet.Table); err != nil {
			return "", err
		}
	}
	for _, data := range players {
		playerName := strings.TrimSpace(data.Player.Name)
		if playerName == "" {
			playerName = "Player_" + data.Player.ID
		}
		for _, sheet := range data.Sheets {
			if err := addTable("Player_"+playerName+"_"+sheet.Name, sheet.Table); err != nil {
				return "", err
			}
		}
	}

	path, err := w.save(f, taskID, generatedAt)
	if err != nil {
		return "", err
	}
	w.logger.InfoContext(ctx, "report workbook written", "task_id", taskID, "path", path, "sheets", sheets)
	return path, nil
}

// save renders the workbook into a pooled buffer and moves it into place so
// readers never observe a partial file.
func (w *ExcelWriter) save(f *excelize.File, taskID string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", crerr.Wrapf(err, "create export dir %q", w.dir)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := f.WriteTo(buf); err != nil {
		return "", crerr.Wrap(err, "render workbook")
	}

	tmp, err := os.CreateTemp(w.dir, ".fbref_report_*.tmp")
	if err != nil {
		return "", crerr.Wrap(err, "create temp workbook")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", crerr.Wrap(err, "write temp workbook")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", crerr.Wrap(err, "close temp workbook")
	}

	filename := fmt.Sprintf("%s%s_%s.xlsx", filePrefix, taskID, generatedAt.Format(timestampLayout))
	path := filepath.Join(w.dir, filename)
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", crerr.Wrapf(err, "move workbook to %q", path)
	}
	return path, nil
}

// RemoveOlderThan deletes report files last modified before now-age.
func (w *ExcelWriter) RemoveOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if age <= 0 {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(w.dir, filePrefix+"*.xlsx"))
	if err != nil {
		return 0, crerr.Wrap(err, "list report files")
	}

	cutoff := w.now().Add(-age)
	removed := 0
	var errs error
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = crerr.CombineErrors(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		w.logger.InfoContext(ctx, "expired report files removed", "count", removed, "dir", w.dir)
	}
	return removed, errs
}

func metadataRows(taskID string, info matchreport.MatchInfo, generatedAt time.Time) [][]any {
	rows := [][]any{
		{"Key", "Value"},
		{"Generated", generatedAt.Format(time.RFC3339)},
		{"Task ID", taskID},
	}
	for _, pair := range info.Pairs() {
		key := pair.Key
		switch key {
		case "url":
			key = "Match URL"
		case "match_id":
			key = "Match ID"
		}
		rows = append(rows, []any{key, pair.Value})
	}
	return rows
}

func tableRows(table matchreport.Table) [][]any {
	rows := make([][]any, 0, len(table.Rows)+1)
	rows = append(rows, stringsToCells(table.Columns))
	for _, row := range table.Rows {
		rows = append(rows, stringsToCells(row))
	}
	return rows
}

func stringsToCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
