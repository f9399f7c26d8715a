// Package export writes transcription history to spreadsheet files.
package export

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"green-needle/internal/app/model"
)

// ToExcel writes the records to an .xlsx workbook at outputPath, one row per
// transcription.
func ToExcel(records []model.HistoryRecord, outputPath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcriptions")
	if err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, title := range []string{
		"ID", "Source", "File", "Duration (s)", "Language",
		"Model", "Provider", "Created", "Transcription", "Error",
	} {
		headerRow.AddCell().Value = title
	}

	for _, record := range records {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprint(record.ID)
		row.AddCell().Value = record.Source
		row.AddCell().Value = record.FileName
		row.AddCell().Value = fmt.Sprintf("%.2f", record.AudioDuration)
		row.AddCell().Value = record.Language
		row.AddCell().Value = record.Model
		row.AddCell().Value = record.Provider
		row.AddCell().Value = record.CreatedAt.Format(time.RFC3339)
		row.AddCell().Value = record.Text
		row.AddCell().Value = record.ErrorMessage
	}

	if err := file.Save(outputPath); err != nil {
		return fmt.Errorf("export: save %s: %w", outputPath, err)
	}
	return nil
}
