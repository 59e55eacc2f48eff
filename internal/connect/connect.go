// Package connect provides database connection configuration and the
// Provider abstraction the diff engine uses to acquire read connections per
// instance. A provider may pool: StaticProvider hands back one lazily opened
// *sql.DB per instance for the lifetime of the client.
package connect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config holds connection parameters for one PostgreSQL instance.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// DefaultConfig returns a configuration with the usual local defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:    "localhost",
		Port:    5432,
		SSLMode: "prefer",
	}
}

// DSN constructs a PostgreSQL connection string from the configuration.
func (c *Config) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("user=%s", c.User),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", c.SSLMode))
	}
	return strings.Join(parts, " ")
}

// Provider yields a live read connection for an instance identifier. The
// diff engine treats every failure mode uniformly: an error aborts the
// current comparison with success=false.
type Provider interface {
	Acquire(ctx context.Context, instance string) (*sql.DB, error)
}

// StaticProvider maps instance identifiers to fixed configurations and keeps
// one pooled *sql.DB per instance.
type StaticProvider struct {
	mu      sync.Mutex
	configs map[string]*Config
	pools   map[string]*sql.DB
}

// NewStaticProvider creates a provider over a fixed instance -> config map.
func NewStaticProvider(configs map[string]*Config) *StaticProvider {
	return &StaticProvider{
		configs: configs,
		pools:   make(map[string]*sql.DB),
	}
}

// Acquire returns the pooled connection for the instance, opening it on
// first use and verifying reachability with a ping.
func (p *StaticProvider) Acquire(ctx context.Context, instance string) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.pools[instance]; ok {
		return db, nil
	}

	cfg, ok := p.configs[instance]
	if !ok {
		return nil, fmt.Errorf("unknown instance %q", instance)
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to instance %q: %w", instance, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("instance %q unreachable: %w", instance, err)
	}

	p.pools[instance] = db
	return db, nil
}

// Close closes every pooled connection.
func (p *StaticProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, db := range p.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing pool for %q: %w", name, err)
		}
		delete(p.pools, name)
	}
	return firstErr
}

// DBProvider adapts already-open connections (e.g. test containers) to the
// Provider interface.
type DBProvider map[string]*sql.DB

// Acquire returns the registered connection for the instance.
func (p DBProvider) Acquire(_ context.Context, instance string) (*sql.DB, error) {
	db, ok := p[instance]
	if !ok {
		return nil, fmt.Errorf("unknown instance %q", instance)
	}
	return db, nil
}
