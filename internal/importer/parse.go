// Package importer reads meter readings from CSV and XLSX sheets,
// validates them row by row and inserts the valid entries through the
// backend REST surface. Invalid rows are reported with their source
// line; they never block the valid remainder.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hausakte/hausakte/internal/constants"
)

// RawRow is one unvalidated sheet row. Line is the 1-based row number
// in the source file, header included, so error messages match what
// the user sees in their spreadsheet.
type RawRow struct {
	Line     int
	MeterID  string
	TenantID string
	Date     string
	Value    string
}

// ColumnMapping holds the resolved column indices of a sheet.
// TenantID is optional; -1 marks an absent column.
type ColumnMapping struct {
	MeterID  int
	TenantID int
	Date     int
	Value    int
}

// Header aliases accepted for each import column. The import dialog
// labels the columns in German; exports from other tools use English.
var (
	meterAliases  = []string{"zaehler_custom_id", "zähler custom id", "zaehler custom id", "zaehlernummer", "zählernummer", "meter_id", "meter", "id"}
	tenantAliases = []string{"mieter_id", "mieter", "tenant_id", "tenant"}
	dateAliases   = []string{"ablesedatum", "datum", "date", "reading_date"}
	valueAliases  = []string{"zaehlerstand", "zählerstand", "stand", "wert", "value", "reading"}
)

// DetectMapping resolves the column mapping from a header row.
func DetectMapping(header []string) (ColumnMapping, error) {
	mapping := ColumnMapping{MeterID: -1, TenantID: -1, Date: -1, Value: -1}

	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case mapping.MeterID < 0 && matchesAlias(name, meterAliases):
			mapping.MeterID = i
		case mapping.TenantID < 0 && matchesAlias(name, tenantAliases):
			mapping.TenantID = i
		case mapping.Date < 0 && matchesAlias(name, dateAliases):
			mapping.Date = i
		case mapping.Value < 0 && matchesAlias(name, valueAliases):
			mapping.Value = i
		}
	}

	switch {
	case mapping.MeterID < 0:
		return mapping, fmt.Errorf("Spalte für die Zählernummer fehlt")
	case mapping.Date < 0:
		return mapping, fmt.Errorf("Spalte für das Ablesedatum fehlt")
	case mapping.Value < 0:
		return mapping, fmt.Errorf("Spalte für den Zählerstand fehlt")
	}
	return mapping, nil
}

func matchesAlias(name string, aliases []string) bool {
	for _, alias := range aliases {
		if name == alias {
			return true
		}
	}
	return false
}

// ReadCSV parses a CSV sheet. The first row must be the header.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV-Datei konnte nicht gelesen werden: %w", err)
	}
	return rowsFromRecords(records)
}

// ReadXLSX parses the first sheet of an XLSX workbook. The first row
// must be the header.
func ReadXLSX(r io.Reader) ([]RawRow, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Excel-Datei konnte nicht gelesen werden: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel-Datei enthält kein Tabellenblatt")
	}

	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("Tabellenblatt %q konnte nicht gelesen werden: %w", sheets[0], err)
	}
	return rowsFromRecords(records)
}

// rowsFromRecords applies the header mapping and converts the raw
// records. Fully empty rows are skipped; trailing blank rows are a
// fixture of hand-edited spreadsheets.
func rowsFromRecords(records [][]string) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("Datei ist leer")
	}
	if len(records)-1 > constants.ImportMaxRows {
		return nil, fmt.Errorf("Datei enthält mehr als %d Zeilen", constants.ImportMaxRows)
	}

	mapping, err := DetectMapping(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, RawRow{
			Line:     i + 2, // header is line 1
			MeterID:  cell(record, mapping.MeterID),
			TenantID: cell(record, mapping.TenantID),
			Date:     cell(record, mapping.Date),
			Value:    cell(record, mapping.Value),
		})
	}
	return rows, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// excelEpoch is day zero of the 1900 date system (accounting for the
// Lotus 1-2-3 leap year bug Excel reproduces).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseReadingDate accepts ISO dates, German dates and raw Excel
// serial numbers.
func ParseReadingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("Ablesedatum fehlt")
	}

	for _, layout := range []string{"2006-01-02", "02.01.2006", "2.1.2006", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Excel serial date: days since the 1900 epoch. Plausible reading
	// dates land well inside this range.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		days := int(serial)
		frac := serial - float64(days)
		return excelEpoch.AddDate(0, 0, days).Add(time.Duration(frac * float64(24*time.Hour))), nil
	}

	return time.Time{}, fmt.Errorf("Ungültiges Datum: %q", s)
}

// ParseGermanNumber parses a meter value in German or English notation.
// A comma marks the decimal separator; dots are then thousand markers.
func ParseGermanNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("Wert fehlt")
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("Ungültige Zahl: %q", strings.TrimSpace(s))
	}
	return value, nil
}
