package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgcompare/pgcompare"
	"github.com/pgcompare/pgcompare/cmd/util"
	comparepkg "github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/generate"
	"github.com/pgcompare/pgcompare/internal/history"
)

var (
	sourceHost     string
	sourcePort     int
	sourceDB       string
	sourceUser     string
	sourcePassword string
	sourceSchema   string

	destHost     string
	destPort     int
	destDB       string
	destUser     string
	destPassword string
	destSchema   string

	profileFile string
	namePattern string

	scriptFile   string
	includeDrops bool
	wrapMode     string
	validate     bool

	historyFile string
	jsonOutput  bool
)

var CompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a schema between two PostgreSQL instances",
	Long: `Compare the structure of one schema on a source instance against a schema
on a destination instance and report every missing, extra, and modified object.
Optionally generates the migration script reconciling the destination toward
the source and records the run for drift detection.`,
	RunE: runCompare,
}

func init() {
	flags := CompareCmd.Flags()

	flags.StringVar(&sourceHost, "source-host", "localhost", "Source server host")
	flags.IntVar(&sourcePort, "source-port", 5432, "Source server port")
	flags.StringVar(&sourceDB, "source-db", "", "Source database name (required)")
	flags.StringVar(&sourceUser, "source-user", "", "Source user name (required)")
	flags.StringVar(&sourcePassword, "source-password", "", "Source password (optional, can also use SOURCE_PGPASSWORD env var)")
	flags.StringVar(&sourceSchema, "source-schema", "public", "Schema to compare on the source")

	flags.StringVar(&destHost, "dest-host", "localhost", "Destination server host")
	flags.IntVar(&destPort, "dest-port", 5432, "Destination server port")
	flags.StringVar(&destDB, "dest-db", "", "Destination database name (required)")
	flags.StringVar(&destUser, "dest-user", "", "Destination user name (required)")
	flags.StringVar(&destPassword, "dest-password", "", "Destination password (optional, can also use DEST_PGPASSWORD env var)")
	flags.StringVar(&destSchema, "dest-schema", "", "Schema to compare on the destination (default: source schema)")

	flags.StringVar(&profileFile, "profile", "", "Path to a YAML comparison profile")
	flags.StringVar(&namePattern, "name-pattern", "", "Glob restricting top-level object names")

	flags.StringVar(&scriptFile, "script-file", "", "Write the migration script to this path ('-' for stdout)")
	flags.BoolVar(&includeDrops, "include-drops", false, "Generate DROP statements for objects only the destination has")
	flags.StringVar(&wrapMode, "wrap", "transaction", "Script wrapping hint: transaction, statement, or none")
	flags.BoolVar(&validate, "validate", false, "Parse every generated statement and report syntax errors")

	flags.StringVar(&historyFile, "history-file", "", "SQLite path for recording this run and detecting drift")
	flags.BoolVar(&jsonOutput, "json", false, "Emit the full result as JSON")

	CompareCmd.MarkFlagRequired("source-db")
	CompareCmd.MarkFlagRequired("source-user")
	CompareCmd.MarkFlagRequired("dest-db")
	CompareCmd.MarkFlagRequired("dest-user")
}

func runCompare(cmd *cobra.Command, args []string) error {
	client := pgcompare.NewClient(map[string]pgcompare.DatabaseConfig{
		"source": {
			Host:     sourceHost,
			Port:     sourcePort,
			Database: sourceDB,
			User:     sourceUser,
			Password: util.GetEnvWithDefault("SOURCE_PGPASSWORD", sourcePassword),
		},
		"destination": {
			Host:     destHost,
			Port:     destPort,
			Database: destDB,
			User:     destUser,
			Password: util.GetEnvWithDefault("DEST_PGPASSWORD", destPassword),
		},
	})
	defer client.Close()

	if historyFile != "" {
		if err := client.EnableHistory(pgcompare.HistoryOptions{
			Path:     historyFile,
			Username: util.GetEnvWithDefault("USER", ""),
		}); err != nil {
			return err
		}
	}

	var filter *comparepkg.Filter
	if namePattern != "" {
		filter = comparepkg.IncludeAll()
		filter.NamePattern = namePattern
	}

	ctx := context.Background()
	result, drift, err := client.Compare(ctx, pgcompare.CompareOptions{
		Source:            "source",
		Destination:       "destination",
		SourceSchema:      sourceSchema,
		DestinationSchema: destSchema,
		Filter:            filter,
		ProfileFile:       profileFile,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printSummary(result, drift)
	}

	if scriptFile != "" {
		script := client.Script(result, pgcompare.ScriptOptions{
			Wrap:         generate.WrapMode(wrapMode),
			IncludeDrops: includeDrops,
		})
		if validate {
			for _, verr := range client.ValidateScript(script) {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", verr)
			}
		}
		if err := writeScript(script); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("comparison incomplete: %s", result.ErrorMessage)
	}
	return nil
}

func printSummary(result *comparepkg.Result, drift *history.DriftSummary) {
	missing, extra, modified := result.Counts()
	fmt.Printf("Compared %s/%s -> %s/%s\n",
		result.SourceInstance, result.SourceSchema,
		result.DestinationInstance, result.DestinationSchema)
	fmt.Printf("  missing: %d, extra: %d, modified: %d\n", missing, extra, modified)

	for i := range result.Differences {
		d := &result.Differences[i]
		fmt.Printf("  [%s] %s %s %s\n", d.Severity, d.Type, d.Kind(), d.ObjectName())
	}

	if drift != nil && drift.HasDrift() {
		fmt.Println("  drift detected since previous run")
	}
}

func writeScript(script *generate.Script) error {
	sql := script.SQL()
	if scriptFile == "-" {
		fmt.Println(sql)
		return nil
	}
	if err := os.WriteFile(scriptFile, []byte(sql+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}
