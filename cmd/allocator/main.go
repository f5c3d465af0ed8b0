/*
main.go - Application entry point

PURPOSE:
  The allocator CLI. One binary covers the server and the one-shot
  commands, all backed by the same engine wiring:

    allocator serve                      Run the HTTP API
    allocator allocate usual             Apply a preset to today
    allocator workload --date yesterday  Expected vs. logged
    allocator search alice               Identity search
    allocator config                     Show redacted configuration

CONFIGURATION:
  --config points at the JSON configuration file (default
  ~/.allocator.json, also settable via ALLOCATOR_CONFIG). TEMPO_TOKEN
  overrides the token in the file.

GRACEFUL SHUTDOWN (serve):
  On SIGINT/SIGTERM the server stops accepting connections and waits up
  to 30s for in-flight requests before exiting.
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/api"
	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/store/sqlite"
	"github.com/warp/allocation-engine/tempo"
)

var (
	configPath  string
	journalPath string
)

var rootCmd = &cobra.Command{
	Use:   "allocator",
	Short: "Preset-based time allocation against the tracking service",
	Long: `Allocator applies named presets (percentage splits across issues) to
calendar dates, sourcing the day's required hours from the schedule and
refusing duplicate or non-working-day logging unless forced.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the JSON configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(workloadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configCmd)

	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().StringVar(&journalPath, "journal", "", "SQLite submission journal path (empty disables journaling)")

	allocateCmd.Flags().String("date", "today", `Date to log for: "today", "yesterday", or YYYY-MM-DD`)
	allocateCmd.Flags().String("person", "", "Person to log for (name or identity token; empty means yourself)")
	allocateCmd.Flags().String("description", "", "Override the preset descriptions for all entries")
	allocateCmd.Flags().Bool("force", false, "Log even on non-working days or when entries already exist")

	workloadCmd.Flags().String("date", "today", `Date to check: "today", "yesterday", or YYYY-MM-DD`)
	workloadCmd.Flags().String("person", "", "Person to check (name or identity token; empty means yourself)")
}

// wiring bundles the engine and its collaborators built from one config.
type wiring struct {
	cfg      *config.Config
	client   *tempo.Client
	engine   *allocation.AllocationEngine
	reporter *allocation.WorkloadReporter
	keyByID  map[int]string
}

func buildWiring() (*wiring, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	client := tempo.New(cfg.APIToken, cfg.BaseURL, cfg.DirectoryURL)
	people := &allocation.PersonResolver{Self: cfg.Self(), Search: client}
	schedule := &allocation.ScheduleResolver{Schedule: client}

	return &wiring{
		cfg:     cfg,
		client:  client,
		keyByID: cfg.IssueKeyByID(),
		engine: &allocation.AllocationEngine{
			People:   people,
			Schedule: schedule,
			Guard:    &allocation.DuplicateGuard{Worklogs: client},
			Worklogs: client,
			Presets:  cfg.EnginePresets(),
			IssueIDs: cfg.IssueIDs,
		},
		reporter: &allocation.WorkloadReporter{
			People:   people,
			Schedule: schedule,
			Worklogs: client,
		},
	}, nil
}

// resolveDate mirrors the API's keyword handling for the CLI flags.
func resolveDate(s string) (allocation.Date, error) {
	switch s {
	case "", "today":
		return allocation.Today(), nil
	case "yesterday":
		return allocation.Today().AddDays(-1), nil
	default:
		return allocation.ParseDate(s)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// =============================================================================
// SERVE
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")

	w, err := buildWiring()
	if err != nil {
		return err
	}

	var journal *sqlite.Journal
	if journalPath != "" {
		journal, err = sqlite.New(journalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	handler := api.NewHandler(w.engine, w.reporter, w.client, w.cfg, journal)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("allocator API listening on http://localhost:%d", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// =============================================================================
// ONE-SHOT COMMANDS
// =============================================================================

var allocateCmd = &cobra.Command{
	Use:   "allocate PRESET",
	Short: "Apply a preset to a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllocate,
}

func runAllocate(cmd *cobra.Command, args []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}

	dateFlag, _ := cmd.Flags().GetString("date")
	date, err := resolveDate(dateFlag)
	if err != nil {
		return err
	}
	person, _ := cmd.Flags().GetString("person")
	description, _ := cmd.Flags().GetString("description")
	force, _ := cmd.Flags().GetBool("force")

	result, err := w.engine.Allocate(cmd.Context(), allocation.AllocationRequest{
		PersonRef:   person,
		Date:        date,
		Preset:      args[0],
		Description: description,
		Force:       force,
	})
	if err != nil {
		return err
	}
	return printJSON(api.ToResultDTO(result, w.keyByID))
}

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Show logged time vs. expected hours for a date",
	RunE:  runWorkload,
}

func runWorkload(cmd *cobra.Command, _ []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}

	dateFlag, _ := cmd.Flags().GetString("date")
	date, err := resolveDate(dateFlag)
	if err != nil {
		return err
	}
	person, _ := cmd.Flags().GetString("person")

	report, err := w.reporter.Report(cmd.Context(), person, date)
	if err != nil {
		return err
	}

	remaining := report.RequiredSeconds - report.LoggedSeconds
	if remaining < 0 {
		remaining = 0
	}
	return printJSON(api.WorkloadDTO{
		Identity:         string(report.Identity),
		Date:             report.Date.String(),
		RequiredSeconds:  report.RequiredSeconds,
		LoggedSeconds:    report.LoggedSeconds,
		RemainingSeconds: remaining,
		Entries:          api.ToEntryDTOs(report.Entries, w.keyByID),
	})
}

var searchCmd = &cobra.Command{
	Use:   "search NAME",
	Short: "Search people by display name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}

	candidates, err := w.client.SearchByName(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(api.ToCandidateDTOs(candidates))
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the loaded configuration (token redacted)",
	RunE:  runConfig,
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return printJSON(cfg.Redact())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
