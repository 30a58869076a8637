package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"labtrack/internal/logger"
	"labtrack/internal/models"
)

// SampleCreator is the write side of the sample store used by the importer.
type SampleCreator interface {
	Create(sample models.Sample) (int, error)
}

type ImportResult struct {
	Imported int
	IDs      []int
	Errors   []string
}

type csvRow struct {
	line   int
	fields []string
	err    error
}

// ImportSamples creates one sample per valid data row of content. Rows that
// fail to parse or validate are reported in Errors and skipped; a malformed
// header imports nothing.
func ImportSamples(content string, samples SampleCreator) ImportResult {
	result := ImportResult{IDs: []int{}, Errors: []string{}}

	rows, err := readRows(strings.TrimPrefix(content, "\ufeff"))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read CSV file: %v", err))
		return result
	}
	if len(rows) < 2 {
		result.Errors = append(result.Errors, "CSV file must contain at least one data row")
		return result
	}

	if rows[0].err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read CSV header: %v", rows[0].err))
		return result
	}

	header := make([]string, len(rows[0].fields))
	for i, col := range rows[0].fields {
		header[i] = strings.TrimSpace(col)
	}
	if len(header) > 0 {
		header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff"))
	}

	mapped := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, col := range header {
		field, ok := importFields[col]
		if !ok {
			field = col
		}
		mapped[i] = field
		present[field] = true
	}
	if !present[fieldCustomerID] || !present[fieldSampleName] {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Invalid header. Required columns: '%s' and '%s'. Received: %q",
			headerCustomerID, headerSampleName, header))
		return result
	}

	for _, row := range rows[1:] {
		if row.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row.line, row.err))
			continue
		}
		if blank(row.fields) {
			continue
		}
		if len(row.fields) != len(header) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: column count does not match header", row.line))
			continue
		}

		values := make(map[string]string, len(mapped))
		for i, field := range mapped {
			values[field] = strings.TrimSpace(row.fields[i])
		}

		if values[fieldCustomerID] == "" || values[fieldSampleName] == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing required fields", row.line))
			continue
		}

		customerID, err := strconv.Atoi(values[fieldCustomerID])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: customer_id must be a number", row.line))
			continue
		}

		id, err := samples.Create(models.Sample{
			CustomerID:     customerID,
			SampleName:     values[fieldSampleName],
			SampleCode:     values[fieldSampleCode],
			SampleType:     values[fieldSampleType],
			AnalysisTarget: values[fieldAnalysisTarget],
			Note:           values[fieldNote],
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to create sample - %v", row.line, err))
			continue
		}
		result.IDs = append(result.IDs, id)
		result.Imported++
	}

	logger.Info("Sample import finished", "imported", result.Imported, "errors", len(result.Errors))
	return result
}

// readRows parses the whole file up front, keeping the physical line number
// of each record. A record that fails to parse is kept with its error so the
// rows around it still import.
func readRows(content string) ([]csvRow, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []csvRow
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rows = append(rows, csvRow{line: perr.StartLine, err: perr.Err})
			continue
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
