// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensource-finance/ringdetect/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun persists a completed run's full result and, in the same
// transaction, upserts the latest AccountView for every account it
// touched so GetAccount never has to deserialize a whole run blob.
func (r *SQLRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("%w: runID is required", ErrInvalidInput)
	}

	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runQuery := `INSERT INTO runs (run_id, created_at, result) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, r.rebind(runQuery), run.RunID, run.CreatedAt, string(resultJSON)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	acctQuery := `
		INSERT INTO accounts (account_id, run_id, updated_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			run_id = excluded.run_id,
			updated_at = excluded.updated_at,
			data = excluded.data
	`
	for _, acct := range run.Result.Accounts {
		data, err := json.Marshal(acct)
		if err != nil {
			return fmt.Errorf("failed to marshal account %s: %w", acct.AccountID, err)
		}
		if _, err := tx.ExecContext(ctx, r.rebind(acctQuery), acct.AccountID, run.RunID, run.CreatedAt, string(data)); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", acct.AccountID, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by id.
func (r *SQLRepository) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	query := `SELECT run_id, created_at, result FROM runs WHERE run_id = ?`

	var run domain.Run
	var resultJSON string

	err := r.db.QueryRowContext(ctx, r.rebind(query), runID).Scan(&run.RunID, &run.CreatedAt, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(resultJSON), &run.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result for run %s: %w", runID, err)
	}

	return &run, nil
}

// GetAccount retrieves a single account's view from its most recent run.
func (r *SQLRepository) GetAccount(ctx context.Context, accountID string) (*domain.AccountView, error) {
	query := `SELECT data FROM accounts WHERE account_id = ?`

	var data string
	err := r.db.QueryRowContext(ctx, r.rebind(query), accountID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var view domain.AccountView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", accountID, err)
	}

	return &view, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
