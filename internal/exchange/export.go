package exchange

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"labtrack/internal/models"

	"github.com/xuri/excelize/v2"
)

// WriteSamplesCSV writes samples with the localized export header. The BOM
// makes spreadsheet tools pick UTF-8.
func WriteSamplesCSV(w io.Writer, samples []models.Sample) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, s := range samples {
		record := []string{
			strconv.Itoa(s.ID),
			s.ReceivedDate,
			strconv.Itoa(s.CustomerID),
			s.SampleName,
			s.SampleCode,
			s.SampleType,
			s.AnalysisTarget,
			s.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportSamplesCSV renders the samples of one customer, or all of them when
// customerID is nil.
func ExportSamplesCSV(samples []models.Sample, customerID *int) ([]byte, error) {
	if customerID != nil {
		filtered := make([]models.Sample, 0, len(samples))
		for _, s := range samples {
			if s.CustomerID == *customerID {
				filtered = append(filtered, s)
			}
		}
		samples = filtered
	}

	var buf bytes.Buffer
	if err := WriteSamplesCSV(&buf, samples); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var templateRows = [][]string{
	{"1", "Mẫu đất 01", "DAT-001", "Đất", "Kim loại nặng", ""},
	{"1", "Mẫu nước 01", "NUOC-001", "Nước", "pH, độ dẫn điện", "Lấy mẫu buổi sáng"},
}

// SampleTemplateCSV returns an import template with example rows. A numeric
// customerID replaces the example customer id.
func SampleTemplateCSV(customerID string) ([]byte, error) {
	useID := customerID != ""
	for _, r := range customerID {
		if r < '0' || r > '9' {
			useID = false
			break
		}
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	cw := csv.NewWriter(&buf)
	if err := cw.Write(importHeader); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}
	for _, row := range templateRows {
		record := append([]string(nil), row...)
		if useID {
			record[0] = customerID
		}
		if err := cw.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write template row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportClosedSamplesXLSX renders every closed sample as a single-sheet
// workbook with a bold header row.
func ExportClosedSamplesXLSX(closed []models.ClosedSample) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(closedSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, title := range closedHeader {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(closedSheetName, c, title)
	}
	last, _ := excelize.CoordinatesToCellName(len(closedHeader), 1)
	f.SetCellStyle(closedSheetName, "A1", last, headerStyle)
	f.SetColWidth(closedSheetName, "A", "A", 6)
	f.SetColWidth(closedSheetName, "B", "J", 18)

	for r, cs := range closed {
		values := []interface{}{
			cs.ID,
			cs.ClosingDate,
			cs.CustomerName,
			cs.SampleName,
			cs.Encoding,
			cs.BoxSymbol,
			cs.Weight,
			cs.Moisture,
			cs.CorrectedWeight,
			cs.Note,
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(closedSheetName, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
