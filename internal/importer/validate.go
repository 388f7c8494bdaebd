package importer

import (
	"fmt"
	"time"

	"github.com/hausakte/hausakte/internal/models"
)

// RowError describes why one source row was rejected. Message is the
// German text shown next to the row in the import dialog.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("Zeile %d: %s", e.Line, e.Message)
}

// ValidationResult separates the importable readings from the rejected
// rows. Rejected rows never block the valid remainder.
type ValidationResult struct {
	Valid  []models.MeterReading
	Errors []RowError
}

// Validate checks every row and deduplicates within the batch.
//
// A reading is valid when the meter ID is present, the date parses and
// does not lie in the future, and the value is a positive number. When
// the batch contains two rows for the same meter and date, or two rows
// carrying the same tenant ID, the first wins and the duplicates are
// rejected.
func Validate(rows []RawRow, now time.Time) ValidationResult {
	var result ValidationResult
	seen := make(map[string]int, len(rows))  // meterID+date -> first line
	tenants := make(map[string]int)          // tenantID -> first line

	today := now.Truncate(24 * time.Hour).Add(24 * time.Hour) // start of tomorrow

	for _, row := range rows {
		if row.MeterID == "" {
			result.Errors = append(result.Errors, RowError{row.Line, "Zählernummer fehlt"})
			continue
		}

		date, err := ParseReadingDate(row.Date)
		if err != nil {
			result.Errors = append(result.Errors, RowError{row.Line, err.Error()})
			continue
		}
		if !date.Before(today) {
			result.Errors = append(result.Errors, RowError{row.Line, "Ablesedatum darf nicht in der Zukunft liegen"})
			continue
		}

		value, err := ParseGermanNumber(row.Value)
		if err != nil || value <= 0 {
			result.Errors = append(result.Errors, RowError{row.Line, "Zählerstand muss eine positive Zahl sein"})
			continue
		}

		key := row.MeterID + "|" + date.Format("2006-01-02")
		if firstLine, dup := seen[key]; dup {
			result.Errors = append(result.Errors, RowError{
				row.Line,
				fmt.Sprintf("Doppelte Einträge: Zähler %s am %s bereits in Zeile %d", row.MeterID, date.Format("02.01.2006"), firstLine),
			})
			continue
		}
		if row.TenantID != "" {
			if firstLine, dup := tenants[row.TenantID]; dup {
				result.Errors = append(result.Errors, RowError{
					row.Line,
					fmt.Sprintf("Doppelte Einträge: Mieter %s bereits in Zeile %d", row.TenantID, firstLine),
				})
				continue
			}
			tenants[row.TenantID] = row.Line
		}
		seen[key] = row.Line

		result.Valid = append(result.Valid, models.MeterReading{
			MeterID:     row.MeterID,
			TenantID:    row.TenantID,
			ReadingDate: date,
			Value:       value,
		})
	}

	return result
}
