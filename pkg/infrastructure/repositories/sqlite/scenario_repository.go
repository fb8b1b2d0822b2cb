package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/migrate"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
  name           TEXT PRIMARY KEY,
  revision       INTEGER NOT NULL DEFAULT 1,
  schema_version INTEGER NOT NULL,
  document       TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS scenario_history (
  id          INTEGER PRIMARY KEY,
  name        TEXT NOT NULL,
  revision    INTEGER NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('saved','deleted')),
  occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_name ON scenario_history(name, revision);
`

// ScenarioRepository stores scenario snapshots as JSON documents in SQLite
type ScenarioRepository struct {
	sql *sql.DB
	now func() time.Time
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// Open opens or creates the database at path and ensures the schema exists
func Open(path string) (*ScenarioRepository, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &ScenarioRepository{sql: db, now: time.Now}, nil
}

// Close closes the database
func (r *ScenarioRepository) Close() error {
	if r == nil || r.sql == nil {
		return nil
	}
	return r.sql.Close()
}

// Get loads and migrates the named scenario
func (r *ScenarioRepository) Get(ctx context.Context, name string) (*entities.Snapshot, error) {
	var document string
	err := r.sql.QueryRowContext(ctx, "SELECT document FROM scenarios WHERE name = ?", name).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrScenarioNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario %s: %w", name, err)
	}

	s, err := migrate.Decode([]byte(document))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	s.Name = name
	return s, nil
}

// Save upserts the snapshot and records the new revision in the history table
func (r *ScenarioRepository) Save(ctx context.Context, s *entities.Snapshot) (revision int, err error) {
	if s == nil || s.Name == "" {
		return 0, fmt.Errorf("scenario name cannot be empty")
	}
	doc, err := migrate.Encode(s)
	if err != nil {
		return 0, err
	}
	now := r.now().UTC().Format(time.RFC3339Nano)

	tx, err := r.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, "SELECT revision FROM scenarios WHERE name = ?", s.Name).Scan(&revision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		revision = 0
	case err != nil:
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	revision++

	_, err = tx.ExecContext(ctx, `INSERT INTO scenarios(name, revision, schema_version, document, updated_at) VALUES(?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET revision = excluded.revision, schema_version = excluded.schema_version, document = excluded.document, updated_at = excluded.updated_at`,
		s.Name, revision, entities.SchemaVersion, string(doc), now)
	if err != nil {
		return 0, fmt.Errorf("failed to save scenario %s: %w", s.Name, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO scenario_history(name, revision, change_type, occurred_at) VALUES(?,?,'saved',?)`, s.Name, revision, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return revision, nil
}

// List returns summaries ordered by name; collection sizes are read from the
// stored documents without decoding them
func (r *ScenarioRepository) List(ctx context.Context) ([]repositories.ScenarioSummary, error) {
	rows, err := r.sql.QueryContext(ctx, "SELECT name, revision, schema_version, document, updated_at FROM scenarios ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var summaries []repositories.ScenarioSummary
	for rows.Next() {
		var (
			name, document, updatedAt string
			revision, schemaVersion   int
		)
		if err := rows.Scan(&name, &revision, &schemaVersion, &document, &updatedAt); err != nil {
			return nil, err
		}
		header := migrate.Summarize([]byte(document))
		ts, _ := time.Parse(time.RFC3339Nano, updatedAt)
		summaries = append(summaries, repositories.ScenarioSummary{
			Name:          name,
			Revision:      revision,
			SchemaVersion: schemaVersion,
			UpdatedAt:     ts,
			StockItems:    header.StockItems,
			Batches:       header.Batches,
			Schedule:      header.Schedule,
		})
	}
	return summaries, rows.Err()
}

// Delete removes the named scenario
func (r *ScenarioRepository) Delete(ctx context.Context, name string) (err error) {
	tx, err := r.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var revision int
	err = tx.QueryRowContext(ctx, "SELECT revision FROM scenarios WHERE name = ?", name).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", repositories.ErrScenarioNotFound, name)
	}
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM scenarios WHERE name = ?", name); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO scenario_history(name, revision, change_type, occurred_at) VALUES(?,?,'deleted',?)`,
		name, revision, r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// HistoryEntry is one recorded save or delete
type HistoryEntry struct {
	Name       string    `json:"name"`
	Revision   int       `json:"revision"`
	ChangeType string    `json:"changeType"`
	OccurredAt time.Time `json:"occurredAt"`
}

// History returns the recorded changes of a scenario, oldest first
func (r *ScenarioRepository) History(ctx context.Context, name string) ([]HistoryEntry, error) {
	rows, err := r.sql.QueryContext(ctx, "SELECT name, revision, change_type, occurred_at FROM scenario_history WHERE name = ? ORDER BY id", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			h  HistoryEntry
			at string
		)
		if err := rows.Scan(&h.Name, &h.Revision, &h.ChangeType, &at); err != nil {
			return nil, err
		}
		h.OccurredAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, h)
	}
	return out, rows.Err()
}
