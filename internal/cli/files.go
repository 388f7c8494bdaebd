// Package cli file operation commands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/browser"
	"github.com/hausakte/hausakte/internal/localfs"
	"github.com/hausakte/hausakte/internal/storage"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Dateioperationen (auflisten, herunterladen, löschen, verschieben)",
		Long:  `Befehle für den Dokumentenspeicher einer Hausverwaltung.`,
	}

	filesCmd.AddCommand(newFilesListCmd())
	filesCmd.AddCommand(newFilesDownloadCmd())
	filesCmd.AddCommand(newFilesDeleteCmd())
	filesCmd.AddCommand(newFilesMoveCmd())
	filesCmd.AddCommand(newFilesUploadCmd())
	filesCmd.AddCommand(newFilesMkdirCmd())

	return filesCmd
}

// newFilesListCmd creates the 'files ls' command.
func newFilesListCmd() *cobra.Command {
	var sortBy string
	var descending bool
	var filter string

	cmd := &cobra.Command{
		Use:   "ls <pfad>",
		Short: "Ordnerinhalt auflisten",
		Long: `Listet die Dateien und Unterordner eines Speicherpfads.

Beispiele:
  # Wurzelordner eines Nutzers
  hausakte files ls user_42

  # Unterordner, nach Größe absteigend
  hausakte files ls user_42/rechnungen --sort size --desc

  # Nur Dateien, deren Name "vertrag" enthält
  hausakte files ls user_42 --filter vertrag`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromFlags()
			if err != nil {
				return err
			}

			e.store.SetSort(sortBy, !descending)
			e.store.SetFilter(filter)

			listing, err := e.controller.Navigate(GetContext(), args[0], browser.Options{})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, folder := range listing.Folders {
				fmt.Fprintf(w, "%s/\t\t%d Datei(en)\n", folder.Name, folder.FileCount)
			}
			for _, file := range e.store.VisibleFiles() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", file.Name, file.Size, file.UpdatedAt.Format("02.01.2006 15:04"))
			}
			w.Flush()

			fmt.Printf("\n%s  (%d Dateien, %d Ordner)\n",
				storage.PathToURL(listing.Path), len(listing.Files), len(listing.Folders))
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sortierung: name, size, modified")
	cmd.Flags().BoolVar(&descending, "desc", false, "Absteigend sortieren")
	cmd.Flags().StringVar(&filter, "filter", "", "Nur Dateien mit diesem Namensbestandteil")

	return cmd
}

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <key> [key...]",
		Short: "Dateien herunterladen",
		Long: `Lädt eine oder mehrere Dateien aus dem Dokumentenspeicher.

Beispiele:
  hausakte files download user_42/vertrag.pdf
  hausakte files download user_42/a.pdf user_42/b.pdf --outdir ./unterlagen`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromFlags()
			if err != nil {
				return err
			}

			if err := localfs.EnsureDir(outputDir); err != nil {
				return err
			}

			for _, key := range args {
				target := localfs.UniquePath(outputDir, key[strings.LastIndex(key, "/")+1:])
				out, err := os.Create(target)
				if err != nil {
					return err
				}
				n, err := e.files.Download(GetContext(), key, out)
				out.Close()
				if err != nil {
					os.Remove(target)
					return fmt.Errorf("download von %q fehlgeschlagen: %w", key, err)
				}
				fmt.Printf("%s (%d Bytes)\n", target, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "outdir", ".", "Zielverzeichnis")
	return cmd
}

// newFilesDeleteCmd creates the 'files rm' command.
func newFilesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <key> [key...]",
		Short: "Dateien löschen",
		Long: `Löscht Dateien endgültig aus dem Dokumentenspeicher.

Ohne --yes wird vor dem Löschen nachgefragt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("%d Datei(en) endgültig löschen?", len(args))) {
				fmt.Println("Abgebrochen.")
				return nil
			}

			e, err := engineFromFlags()
			if err != nil {
				return err
			}

			failed := 0
			for _, key := range args {
				if err := e.files.Delete(GetContext(), key); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", key, err)
					failed++
					continue
				}
				fmt.Printf("%s gelöscht\n", key)
			}
			if failed > 0 {
				return fmt.Errorf("%d von %d Löschvorgängen fehlgeschlagen", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Nicht nachfragen")
	return cmd
}

// newFilesMoveCmd creates the 'files mv' command.
func newFilesMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <key> <ziel-key>",
		Short: "Datei verschieben oder umbenennen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromFlags()
			if err != nil {
				return err
			}
			if err := e.client.MoveObject(GetContext(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "upload <datei> [datei...]",
		Short: "Dateien hochladen",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if folder == "" {
				return fmt.Errorf("--folder ist erforderlich (z.B. user_42/rechnungen)")
			}

			e, err := engineFromFlags()
			if err != nil {
				return err
			}

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				name := path[strings.LastIndex(path, "/")+1:]
				err = e.files.Upload(GetContext(), folder, name, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("upload von %q fehlgeschlagen: %w", path, err)
				}
				fmt.Printf("%s hochgeladen\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Zielordner im Speicher")
	return cmd
}

// newFilesMkdirCmd creates the 'files mkdir' command.
func newFilesMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <pfad>",
		Short: "Leeren Ordner anlegen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromFlags()
			if err != nil {
				return err
			}
			if err := e.files.CreateFolder(GetContext(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s angelegt\n", args[0])
			return nil
		},
	}
}

// engineFromFlags loads the config and wires the engine.
func engineFromFlags() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("Konfiguration konnte nicht geladen werden: %w", err)
	}
	return newEngine(cfg)
}

// confirm asks a yes/no question on stdin.
func confirm(question string) bool {
	fmt.Printf("%s [j/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "j" || answer == "ja" || answer == "y" || answer == "yes"
}
