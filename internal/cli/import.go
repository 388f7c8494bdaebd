// Package cli meter reading import command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/importer"
)

// newImportCmd creates the 'import' command group.
func newImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Datenimport (Zählerstände)",
	}

	importCmd.AddCommand(newImportReadingsCmd())
	return importCmd
}

// newImportReadingsCmd creates the 'import readings' command.
func newImportReadingsCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "readings <datei.csv|datei.xlsx>",
		Short: "Zählerstände aus CSV- oder Excel-Datei importieren",
		Long: `Importiert Zählerstände aus einer CSV- oder XLSX-Datei.

Erwartete Spalten (Reihenfolge beliebig, Kopfzeile erforderlich):
  Zaehler_Custom_ID   Zählernummer
  Ablesedatum         ISO (2026-08-01) oder deutsch (01.08.2026)
  Zaehlerstand        positive Zahl, Komma oder Punkt als Dezimaltrenner
  Mieter_ID           optional

Ungültige Zeilen werden übersprungen und einzeln gemeldet; die
gültigen Zeilen werden trotzdem importiert.

Beispiele:
  hausakte import readings ablesungen.csv
  hausakte import readings ablesungen.xlsx --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			// Dry runs never touch the backend, so no engine is needed.
			if dryRun {
				return runImportDryRun(args[0], f)
			}

			e, err := engineFromFlags()
			if err != nil {
				return err
			}
			imp := importer.New(e.client, e.eventBus, e.metrics)

			flush := e.printToasts()
			report, err := imp.ImportFile(GetContext(), args[0], f)
			printRowErrors(report.Errors)
			flush()
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Nur validieren, nichts importieren")
	return cmd
}

// runImportDryRun validates the file and prints the outcome without
// touching the backend.
func runImportDryRun(filename string, f *os.File) error {
	var (
		rows []importer.RawRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = importer.ReadCSV(f)
	case ".xlsx":
		rows, err = importer.ReadXLSX(f)
	default:
		return fmt.Errorf("Dateiformat wird nicht unterstützt: %q", filename)
	}
	if err != nil {
		return err
	}

	result := importer.Validate(rows, time.Now())
	printRowErrors(result.Errors)
	fmt.Printf("%d gültige Zeilen, %d übersprungen (nichts importiert)\n",
		len(result.Valid), len(result.Errors))
	return nil
}

func printRowErrors(errs []importer.RowError) {
	for _, rowErr := range errs {
		fmt.Fprintln(os.Stderr, rowErr.Error())
	}
}
