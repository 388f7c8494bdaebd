package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
)

// Inserter is the backend surface for storing validated readings.
// *api.Client satisfies this.
type Inserter interface {
	InsertMeterReadings(ctx context.Context, readings []models.MeterReading) error
}

// Report summarizes one import run.
type Report struct {
	Imported int
	Rejected int
	Errors   []RowError
}

// Importer drives the meter reading import end to end: parse,
// validate, insert, report.
type Importer struct {
	client   Inserter
	eventBus *events.EventBus
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

// New creates an importer.
func New(client Inserter, eventBus *events.EventBus, m *metrics.Metrics) *Importer {
	return &Importer{
		client:   client,
		eventBus: eventBus,
		metrics:  m,
		logger:   logging.NewLogger("importer"),
		now:      time.Now,
	}
}

// ImportFile imports readings from the named file. The format is
// chosen by extension: .csv and .xlsx are supported.
func (imp *Importer) ImportFile(ctx context.Context, filename string, r io.Reader) (Report, error) {
	var (
		rows []RawRow
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = ReadCSV(r)
	case ".xlsx":
		rows, err = ReadXLSX(r)
	default:
		err = fmt.Errorf("Dateiformat wird nicht unterstützt: %q (erlaubt sind .csv und .xlsx)", filepath.Ext(filename))
	}
	if err != nil {
		return Report{}, err
	}

	return imp.Import(ctx, rows)
}

// Import validates the rows and inserts the valid readings in one
// batch. Rejected rows are returned in the report; they do not fail
// the import. The insert itself is all-or-nothing: on backend failure
// nothing was stored and the whole batch stays pending.
func (imp *Importer) Import(ctx context.Context, rows []RawRow) (Report, error) {
	result := Validate(rows, imp.now())

	report := Report{
		Imported: len(result.Valid),
		Rejected: len(result.Errors),
		Errors:   result.Errors,
	}

	if len(result.Valid) > 0 {
		if err := imp.client.InsertMeterReadings(ctx, result.Valid); err != nil {
			imp.logger.Error().Int("rows", len(result.Valid)).Err(err).Msg("Meter reading insert failed")
			if imp.eventBus != nil {
				imp.eventBus.PublishToast(events.ToastError, "Zählerstände konnten nicht importiert werden")
			}
			report.Imported = 0
			return report, err
		}
	}

	if imp.metrics != nil {
		imp.metrics.ImportRowsTotal.WithLabelValues("valid").Add(float64(report.Imported))
		imp.metrics.ImportRowsTotal.WithLabelValues("invalid").Add(float64(report.Rejected))
	}

	imp.logger.Info().
		Int("imported", report.Imported).
		Int("rejected", report.Rejected).
		Msg("Meter reading import finished")

	if imp.eventBus != nil {
		imp.eventBus.Publish(&events.ImportCompletedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventImportCompleted, Time: time.Now()},
			Imported:  report.Imported,
			Rejected:  report.Rejected,
		})
		imp.eventBus.PublishToast(toastLevel(report), toastMessage(report))
	}

	return report, nil
}

func toastLevel(report Report) events.ToastLevel {
	if report.Rejected > 0 {
		return events.ToastError
	}
	return events.ToastSuccess
}

func toastMessage(report Report) string {
	noun := "Zählerstände"
	if report.Imported == 1 {
		noun = "Zählerstand"
	}
	msg := fmt.Sprintf("%d %s erfolgreich importiert", report.Imported, noun)
	if report.Rejected > 0 {
		msg += fmt.Sprintf(", %d Zeilen übersprungen", report.Rejected)
	}
	return msg
}
