package repository

// Schema definitions for the ring-detection database.
// Compatible with both SQLite and PostgreSQL.

// schemaRuns stores each completed pipeline run as an immutable row: the
// run's identity plus its full Result payload serialized as JSON. Nothing
// queries into a run's rings or pattern scores relationally, so one JSON
// column is simpler than normalizing them into their own tables.
const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    result TEXT NOT NULL
);
`

// schemaAccounts is a denormalized, upserted index of the latest
// AccountView seen for each account id, so GetAccount does not need to
// deserialize and scan whole run blobs to answer a single-account lookup.
// A later run's view for an account replaces the earlier one.
const schemaAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
    account_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_run ON accounts(run_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaRuns,
		schemaAccounts,
	}
}
