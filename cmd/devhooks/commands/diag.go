package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"time"

	"github.com/roasbeef/devhooks/internal/db"
	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/spf13/cobra"
)

var (
	diagLimit     int
	diagKind      string
	diagOlderThan time.Duration
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Inspect recorded hook diagnostics",
	Long: `Inspect the diagnostics recorded for each hook invocation.

recent, stats and prune read the sqlite event store; log reads the JSONL
diagnostics file.`,
}

var diagRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent hook invocations",
	RunE:  runDiagRecent,
}

var diagStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded hook invocations",
	RunE:  runDiagStats,
}

var diagPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old hook invocations from the event store",
	RunE:  runDiagPrune,
}

var diagLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the tail of the JSONL diagnostics file",
	RunE:  runDiagLog,
}

func init() {
	diagRecentCmd.Flags().IntVarP(
		&diagLimit, "limit", "n", 20, "Maximum number of events",
	)
	diagRecentCmd.Flags().StringVar(
		&diagKind, "kind", "",
		"Only list one kind: file_change or prompt",
	)
	diagPruneCmd.Flags().DurationVar(
		&diagOlderThan, "older-than", 30*24*time.Hour,
		"Delete events older than this",
	)
	diagLogCmd.Flags().IntVarP(
		&diagLimit, "limit", "n", 20, "Maximum number of records",
	)

	diagCmd.AddCommand(diagRecentCmd)
	diagCmd.AddCommand(diagStatsCmd)
	diagCmd.AddCommand(diagPruneCmd)
	diagCmd.AddCommand(diagLogCmd)
}

// withStore runs fn against the configured event store.
func withStore(cmd *cobra.Command,
	fn func(ctx context.Context, store *db.Store, w io.Writer) error) error {

	ctx := cmd.Context()

	rt, err := loadRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	store, err := rt.requireStore()
	if err != nil {
		return err
	}

	return fn(ctx, store, cmd.OutOrStdout())
}

func runDiagRecent(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *db.Store,
		w io.Writer) error {

		return listRecent(ctx, store, w, diagKind, diagLimit)
	})
}

// eventJSON is the JSON shape of a stored event.
type eventJSON struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Label         string `json:"label"`
	CreatedAt     string `json:"created_at"`
	FileCount     int    `json:"file_count"`
	Notifications int    `json:"notifications"`
	Warnings      int    `json:"warnings"`
	Errors        int    `json:"errors"`
}

// listRecent prints up to limit events, optionally of one kind.
func listRecent(ctx context.Context, store *db.Store, w io.Writer,
	kind string, limit int) error {

	var (
		events []db.HookEvent
		err    error
	)
	switch kind {
	case "":
		events, err = store.ListRecent(ctx, limit)

	case db.KindFileChange, db.KindPrompt:
		events, err = store.ListByKind(ctx, kind, limit)

	default:
		return fmt.Errorf("unknown event kind %q (want %s or %s)", kind,
			db.KindFileChange, db.KindPrompt)
	}
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		out := make([]eventJSON, 0, len(events))
		for _, ev := range events {
			out = append(out, eventJSON{
				ID:            ev.ID,
				Kind:          ev.Kind,
				Label:         ev.Label,
				CreatedAt:     ev.CreatedAt.UTC().Format(time.RFC3339),
				FileCount:     ev.FileCount,
				Notifications: ev.Notifications,
				Warnings:      ev.Warnings,
				Errors:        ev.Errors,
			})
		}
		return outputJSON(w, out)

	default:
		if len(events) == 0 {
			fmt.Fprintln(w, "No events recorded.")
			return nil
		}

		for _, ev := range events {
			ts := ev.CreatedAt.Local().Format(time.DateTime)
			switch ev.Kind {
			case db.KindFileChange:
				fmt.Fprintf(w, "%s  %-11s  %-10s  files=%d "+
					"notes=%d warnings=%d\n", ts, ev.Kind,
					ev.Label, ev.FileCount, ev.Notifications,
					ev.Warnings)

			default:
				fmt.Fprintf(w, "%s  %-11s  %s\n", ts, ev.Kind,
					ev.Label)
			}
		}
	}

	return nil
}

func runDiagStats(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *db.Store,
		w io.Writer) error {

		return printStats(ctx, store, w)
	})
}

// printStats prints the aggregated store counters.
func printStats(ctx context.Context, store *db.Store, w io.Writer) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	oldest := ""
	if stats.Oldest != nil {
		oldest = stats.Oldest.UTC().Format(time.RFC3339)
	}

	switch outputFormat {
	case "json":
		return outputJSON(w, map[string]any{
			"total_events":       stats.TotalEvents,
			"file_change_events": stats.FileChangeEvents,
			"prompt_events":      stats.PromptEvents,
			"files_analysed":     stats.FilesAnalysed,
			"notifications":      stats.Notifications,
			"warnings":           stats.Warnings,
			"errors":             stats.Errors,
			"intents":            stats.Intents,
			"oldest":             oldest,
		})

	default:
		fmt.Fprintln(w, "Hook Diagnostics")
		fmt.Fprintln(w, "================")
		fmt.Fprintf(w, "Events:         %d (%d file change, %d "+
			"prompt)\n", stats.TotalEvents, stats.FileChangeEvents,
			stats.PromptEvents)
		fmt.Fprintf(w, "Files analysed: %d\n", stats.FilesAnalysed)
		fmt.Fprintf(w, "Notifications:  %d\n", stats.Notifications)
		fmt.Fprintf(w, "Warnings:       %d\n", stats.Warnings)
		if oldest != "" {
			fmt.Fprintf(w, "Oldest:         %s\n", oldest)
		}

		if len(stats.Intents) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Intents:")

			names := make([]string, 0, len(stats.Intents))
			for name := range stats.Intents {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(w, "  %-12s %d\n", name,
					stats.Intents[name])
			}
		}
	}

	return nil
}

func runDiagPrune(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *db.Store,
		w io.Writer) error {

		cutoff := time.Now().Add(-diagOlderThan)
		n, err := store.Prune(ctx, cutoff)
		if err != nil {
			return err
		}

		log.InfoS(ctx, "Pruned diagnostics events", "removed", n,
			"cutoff", cutoff)
		fmt.Fprintf(w, "Removed %d event(s) older than %s.\n", n,
			cutoff.Format(time.RFC3339))

		return nil
	})
}

func runDiagLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Diagnostics.JSONLPath == "" {
		return fmt.Errorf("diagnostics.jsonl_path is not set")
	}

	return tailJSONL(cmd.OutOrStdout(), cfg.Diagnostics.JSONLPath, diagLimit)
}

// tailJSONL prints the last limit records of the JSONL file at path.
func tailJSONL(w io.Writer, path string, limit int) error {
	records, err := diag.ReadJSONL(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if records == nil {
		records = []map[string]any{}
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	switch outputFormat {
	case "json":
		return outputJSON(w, records)

	default:
		if len(records) == 0 {
			fmt.Fprintln(w, "No records.")
			return nil
		}

		for _, rec := range records {
			fmt.Fprintf(w, "%v  %-11v  %v\n", rec["timestamp"],
				rec["kind"], recordLabel(rec))
		}
	}

	return nil
}

// recordLabel picks the operation or intent field of a raw record.
func recordLabel(rec map[string]any) any {
	if op, ok := rec["operation"]; ok {
		return op
	}

	return rec["intent"]
}
