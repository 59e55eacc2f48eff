package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	historypkg "github.com/pgcompare/pgcompare/internal/history"
)

var (
	historyFile string
	limit       int
	days        int
	source      string
	destination string
	pruneAfter  time.Duration
	jsonOutput  bool
)

var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded comparison runs",
	Long:  "List recorded comparison runs from a history database, optionally filtered by instance pair, and prune old records.",
	RunE:  runHistory,
}

func init() {
	flags := HistoryCmd.Flags()
	flags.StringVar(&historyFile, "history-file", "", "SQLite history database path (required)")
	flags.IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	flags.IntVar(&days, "days", 0, "Only list runs from the last N days (with --source and --dest; 0 lists all)")
	flags.StringVar(&source, "source", "", "Filter by source instance name")
	flags.StringVar(&destination, "dest", "", "Filter by destination instance name")
	flags.DurationVar(&pruneAfter, "prune-older-than", 0, "Delete records older than this duration before listing (e.g. 720h)")
	flags.BoolVar(&jsonOutput, "json", false, "Emit records as JSON")
	HistoryCmd.MarkFlagRequired("history-file")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := historypkg.OpenSQLite(historyFile)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if pruneAfter > 0 {
		retention := historypkg.NewRetention(store, pruneAfter)
		removed, err := retention.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d records\n", removed)
	}

	var records []*historypkg.Record
	if source != "" && destination != "" {
		records, err = store.FindByInstances(ctx, source, destination, days, limit)
	} else {
		records, err = store.FindRecent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed"
		}
		fmt.Printf("%s  %s -> %s  missing=%d extra=%d modified=%d breaking=%d  %s\n",
			rec.ComparedAt.Format(time.RFC3339),
			rec.SourceInstance, rec.DestinationInstance,
			rec.MissingCount, rec.ExtraCount, rec.ModifiedCount, rec.BreakingCount,
			status)
	}
	return nil
}
