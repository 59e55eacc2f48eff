// Package pgcompare provides a programmatic API for comparing PostgreSQL
// schemas across instances. It extracts snapshots, diffs them into object
// differences with severities, generates ordered migration scripts, and
// records run history for drift detection.
package pgcompare

import (
	"context"
	"fmt"
	"time"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/connect"
	"github.com/pgcompare/pgcompare/internal/generate"
	"github.com/pgcompare/pgcompare/internal/history"
)

// DatabaseConfig holds connection details for one PostgreSQL instance.
type DatabaseConfig struct {
	Host     string // Database server host
	Port     int    // Database server port
	Database string // Database name
	User     string // Database user
	Password string // Database password (optional)
	SSLMode  string // libpq sslmode (default: "prefer")
}

// CompareOptions configures one comparison run.
type CompareOptions struct {
	Source            string          // Source instance name (as registered)
	Destination       string          // Destination instance name
	SourceSchema      string          // Schema on the source (default: "public")
	DestinationSchema string          // Schema on the destination (default: source schema)
	Filter            *compare.Filter // Object selection; nil compares everything
	ProfileFile       string          // Optional YAML profile path; overrides Filter
}

// ScriptOptions configures migration script generation.
type ScriptOptions struct {
	Wrap         generate.WrapMode // Transaction wrapping hint (default: transaction)
	IncludeDrops bool              // Generate DROPs for objects only the destination has
}

// HistoryOptions configures run persistence and drift detection.
type HistoryOptions struct {
	Path      string        // SQLite database path; ":memory:" for ephemeral
	Retention time.Duration // Maximum record age; zero keeps everything
	Username  string        // Recorded as the run initiator (optional)
}

// Client is the main entry point. It holds the registered instances and an
// optional history store; all methods are safe for concurrent use.
type Client struct {
	provider *connect.StaticProvider
	engine   *compare.Engine

	store     history.Store
	recorder  *history.Recorder
	retention *history.Retention
	username  string
}

// NewClient registers the given instances by name. Connections are opened
// lazily on first comparison, one pooled connection per instance.
func NewClient(instances map[string]DatabaseConfig) *Client {
	configs := make(map[string]*connect.Config, len(instances))
	for name, dc := range instances {
		cfg := connect.DefaultConfig()
		if dc.Host != "" {
			cfg.Host = dc.Host
		}
		if dc.Port != 0 {
			cfg.Port = dc.Port
		}
		cfg.Database = dc.Database
		cfg.User = dc.User
		cfg.Password = dc.Password
		if dc.SSLMode != "" {
			cfg.SSLMode = dc.SSLMode
		}
		configs[name] = cfg
	}
	provider := connect.NewStaticProvider(configs)
	return &Client{
		provider: provider,
		engine:   compare.NewEngine(provider),
	}
}

// EnableHistory opens the history store and starts recording runs. Call once
// before Compare when drift detection or history queries are wanted.
func (c *Client) EnableHistory(opts HistoryOptions) error {
	store, err := history.OpenSQLite(opts.Path)
	if err != nil {
		return err
	}
	c.store = store
	c.recorder = history.NewRecorder(store)
	c.retention = history.NewRetention(store, opts.Retention)
	c.username = opts.Username
	return nil
}

// Compare runs one comparison and, when history is enabled, records its
// summary. The returned result carries every difference found; check
// Result.Success for orchestration failures that truncated the run.
func (c *Client) Compare(ctx context.Context, opts CompareOptions) (*compare.Result, *history.DriftSummary, error) {
	if opts.Source == "" || opts.Destination == "" {
		return nil, nil, fmt.Errorf("both source and destination instances are required")
	}
	if opts.SourceSchema == "" {
		opts.SourceSchema = "public"
	}
	if opts.DestinationSchema == "" {
		opts.DestinationSchema = opts.SourceSchema
	}

	filter := opts.Filter
	profileName := ""
	if opts.ProfileFile != "" {
		profile, err := compare.LoadProfile(opts.ProfileFile)
		if err != nil {
			return nil, nil, err
		}
		filter = &profile.Filter
		profileName = profile.Name
	}

	result := c.engine.Compare(ctx, opts.Source, opts.Destination,
		opts.SourceSchema, opts.DestinationSchema, filter)

	if c.recorder == nil {
		return result, nil, nil
	}
	if _, err := c.retention.Prune(ctx); err != nil {
		return result, nil, fmt.Errorf("history pruning failed: %w", err)
	}
	_, drift, err := c.recorder.Record(ctx, result, c.username, profileName)
	if err != nil {
		return result, nil, fmt.Errorf("failed to record comparison run: %w", err)
	}
	return result, drift, nil
}

// Script generates the ordered migration script for a comparison result.
// Generation is pure; it touches no database.
func (c *Client) Script(result *compare.Result, opts ScriptOptions) *generate.Script {
	return generate.MigrationScript(result, generate.Options{
		Wrap:         opts.Wrap,
		IncludeDrops: opts.IncludeDrops,
	})
}

// ValidateScript checks every generated statement with the PostgreSQL parser
// and returns one error per unparsable statement.
func (c *Client) ValidateScript(script *generate.Script) []error {
	return generate.ValidateScript(script)
}

// History returns up to limit recorded runs, newest first. Requires
// EnableHistory.
func (c *Client) History(ctx context.Context, limit int) ([]*history.Record, error) {
	if c.store == nil {
		return nil, fmt.Errorf("history is not enabled")
	}
	return c.store.FindRecent(ctx, limit)
}

// HistoryFor returns up to limit recorded runs for one instance pair from the
// last days days, newest first. A days of zero or less means no recency
// window. Requires EnableHistory.
func (c *Client) HistoryFor(ctx context.Context, source, destination string, days, limit int) ([]*history.Record, error) {
	if c.store == nil {
		return nil, fmt.Errorf("history is not enabled")
	}
	return c.store.FindByInstances(ctx, source, destination, days, limit)
}

// Close releases pooled connections and the history store.
func (c *Client) Close() error {
	err := c.provider.Close()
	if c.store != nil {
		if cerr := c.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
