package services

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"docs-rag-service/models"
)

// RunReportBytes renders one ingestion run as an xlsx workbook with a
// documents sheet and a summary sheet.
func RunReportBytes(run *models.IngestionRun) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Documents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"URL", "Title", "Status", "Chunks", "Duration (ms)", "Error"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, doc := range run.Documents {
		row := rowIdx + 2 // Start from row 2 (after headers)
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), doc.URL)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), doc.Title)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), doc.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), doc.Chunks)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), doc.DurationMs)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), doc.Error)
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 30)
	}

	summarySheetName := "Summary"
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summaryData := [][]interface{}{
		{"Run ID", run.RunID},
		{"Sitemap URL", run.SitemapURL},
		{"Collection", run.Collection},
		{"Started At", run.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished At", run.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Duration", run.FinishedAt.Sub(run.StartedAt).String()},
		{"URLs Found", run.URLsFound},
		{"Documents Stored", run.Processed},
		{"Documents Skipped", run.URLsFound - run.Processed},
		{"Total Chunks", run.TotalChunks},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheetName, cellRef, cell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteRunReport writes the run report workbook to disk.
func WriteRunReport(run *models.IngestionRun, path string) error {
	data, err := RunReportBytes(run)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
