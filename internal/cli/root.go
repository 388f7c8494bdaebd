// Package cli provides the command-line interface for hausakte.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/api"
	"github.com/hausakte/hausakte/internal/browser"
	"github.com/hausakte/hausakte/internal/config"
	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/history"
	internalhttp "github.com/hausakte/hausakte/internal/http"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/services"
	"github.com/hausakte/hausakte/internal/state"
	"github.com/hausakte/hausakte/internal/version"
)

var (
	// Global flags
	cfgFile    string
	backendURL string
	bucket     string
	verbose    bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hausakte",
		Short: "hausakte - Dokumentenverwaltung für Immobilien",
		Long: `hausakte ` + version.Version + ` - Built: ` + version.BuildTime + `
Verwaltet die Dokumente und Zählerstände einer Hausverwaltung:
Dateibrowser für den Dokumentenspeicher, Zählerstand-Import und
Stammdatenpflege.

Der Service-Key wird ausschließlich aus der Umgebungsvariable
` + config.ServiceKeyEnv + ` gelesen.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Pfad zur Konfigurationsdatei")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Backend-URL (überschreibt die Konfiguration)")
	rootCmd.PersistentFlags().StringVar(&bucket, "bucket", "", "Storage-Bucket (überschreibt die Konfiguration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug-Ausgaben aktivieren")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI with signal handling: Ctrl+C cancels the root
// context so running transfers stop cleanly.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nSignal %v empfangen, Vorgänge werden abgebrochen...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newApartmentsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadConfigCSV(path)
	if err != nil {
		return nil, err
	}

	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if bucket != "" {
		cfg.Bucket = bucket
	}
	return cfg, nil
}

// engine bundles the wired browser components for CLI use.
type engine struct {
	client     *api.Client
	eventBus   *events.EventBus
	store      *state.BrowserState
	metrics    *metrics.Metrics
	controller *browser.Controller
	files      *services.FileService
	bulk       *services.BulkService
}

// newEngine wires the engine from the configuration. Everything is
// constructed here and passed down; no package holds global state.
func newEngine(cfg *config.Config) (*engine, error) {
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	eventBus := events.NewEventBus(0)
	store := state.NewBrowserState(eventBus)
	store.SetSort(cfg.SortField, cfg.SortAscending)
	m := metrics.New()

	controller := browser.NewController(client, store, history.New(), eventBus, m)
	if cfg.MaxRetries > 0 {
		retryCfg := internalhttp.DefaultConfig()
		retryCfg.MaxRetries = cfg.MaxRetries
		controller.SetRetryConfig(retryCfg)
	}
	files := services.NewFileService(client)
	bulk := services.NewBulkService(files, store, controller, eventBus, m)

	return &engine{
		client:     client,
		eventBus:   eventBus,
		store:      store,
		metrics:    m,
		controller: controller,
		files:      files,
		bulk:       bulk,
	}, nil
}

// printToasts mirrors toast events to the terminal so CLI users see
// the same summaries the web frontend shows.
func (e *engine) printToasts() func() {
	ch := e.eventBus.Subscribe(events.EventToast)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range ch {
			toast, ok := ev.(*events.ToastEvent)
			if !ok {
				continue
			}
			switch toast.Level {
			case events.ToastError:
				fmt.Fprintln(os.Stderr, toast.Message)
			default:
				fmt.Println(toast.Message)
			}
		}
	}()

	return func() {
		e.eventBus.Close()
		<-done
	}
}
