// Package domain defines the core types and collaborator interfaces shared
// across the ring-detection pipeline and its ambient transport/storage shell.
package domain

import (
	"context"
	"time"
)

// Run is a persisted pipeline execution: the input batch's identity plus its
// completed Result. SPEC_FULL.md §4 ("run persistence & retrieval") — the
// core pipeline itself holds no state; Repository is purely the ambient
// shell's concern.
type Run struct {
	RunID       string    `json:"runId"`
	CreatedAt   time.Time `json:"createdAt"`
	Result      Result    `json:"result"`
}

// Repository defines the interface for run persistence.
type Repository interface {
	// SaveRun persists a completed run.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// GetAccount retrieves a single account's view from its most recent run.
	GetAccount(ctx context.Context, accountID string) (*AccountView, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
