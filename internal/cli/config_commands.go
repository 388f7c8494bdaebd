// Package cli configuration commands.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Konfiguration anzeigen und ändern",
		Long: `Verwaltet die Konfigurationsdatei (CSV mit key,value-Zeilen).

Der Service-Key steht nie in der Datei; er wird ausschließlich aus
der Umgebungsvariable ` + config.ServiceKeyEnv + ` gelesen.`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigPathCmd())
	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Aktuelle Konfiguration anzeigen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("backend_url:    %s\n", cfg.BackendURL)
			fmt.Printf("bucket:         %s\n", cfg.Bucket)
			fmt.Printf("max_retries:    %d\n", cfg.MaxRetries)
			fmt.Printf("sort_field:     %s\n", cfg.SortField)
			fmt.Printf("sort_ascending: %v\n", cfg.SortAscending)
			fmt.Printf("metrics_addr:   %s\n", cfg.MetricsAddr)

			if os.Getenv(config.ServiceKeyEnv) != "" {
				fmt.Printf("service_key:    (aus %s gesetzt)\n", config.ServiceKeyEnv)
			} else {
				fmt.Printf("service_key:    (nicht gesetzt - %s fehlt)\n", config.ServiceKeyEnv)
			}
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <wert>",
		Short: "Einen Konfigurationswert setzen",
		Long: `Setzt einen Wert und schreibt die Konfigurationsdatei neu.

Gültige Schlüssel: backend_url, bucket, max_retries, sort_field,
sort_ascending, metrics_addr.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			cfg, err := config.LoadConfigCSV(configPath())
			if err != nil {
				return err
			}

			switch key {
			case "backend_url":
				cfg.BackendURL = value
			case "bucket":
				cfg.Bucket = value
			case "max_retries":
				n, err := strconv.Atoi(value)
				if err != nil || n < 1 {
					return fmt.Errorf("max_retries muss eine Zahl ab 1 sein, nicht %q", value)
				}
				cfg.MaxRetries = n
			case "sort_field":
				if value != "name" && value != "size" && value != "modified" {
					return fmt.Errorf("sort_field muss name, size oder modified sein")
				}
				cfg.SortField = value
			case "sort_ascending":
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("sort_ascending muss true oder false sein")
				}
				cfg.SortAscending = b
			case "metrics_addr":
				cfg.MetricsAddr = value
			case "service_key":
				return fmt.Errorf("der Service-Key wird nur aus %s gelesen und nie gespeichert", config.ServiceKeyEnv)
			default:
				return fmt.Errorf("unbekannter Schlüssel %q", key)
			}

			if err := config.SaveConfigCSV(cfg, configPath()); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", key, value)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Pfad der Konfigurationsdatei anzeigen",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(configPath())
			return nil
		},
	}
}
