package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/quorum/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteLedger implements Ledger using modernc.org/sqlite (pure Go,
// no CGO). Appends are serialized through a single connection; reads
// see a consistent snapshot via WAL.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) a SQLite database at the given path.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all appends through Go's connection pool, which is
	// exactly the write discipline the ledger requires.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (l *SQLiteLedger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := l.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := l.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// RecordBypass appends one bypass record. The table is append-only:
// this package issues no UPDATE or DELETE against bypass_records.
func (l *SQLiteLedger) RecordBypass(ctx context.Context, taskID, reason, requestedBy string, csAtBypass float64) (*models.BypassRecord, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, fmt.Errorf("bypass requires a task id")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("bypass requires a non-empty reason")
	}

	now := time.Now().UTC()
	rec := &models.BypassRecord{
		ID:                   newULID(),
		TaskID:               taskID,
		Reason:               reason,
		RequestedBy:          requestedBy,
		CreatedAt:            now,
		ExpiresAt:            now.Add(models.BypassTTL),
		ConsensusScoreAtTime: csAtBypass,
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO bypass_records (id, task_id, reason, requested_by, created_at, expires_at, consensus_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, rec.Reason, rec.RequestedBy, rec.CreatedAt, rec.ExpiresAt, rec.ConsensusScoreAtTime,
	)
	if err != nil {
		return nil, fmt.Errorf("record bypass: %w", err)
	}
	return rec, nil
}

// IsBypassActive reports whether any non-expired record exists for
// taskID. Expiry is computed at read time against the caller's now.
func (l *SQLiteLedger) IsBypassActive(ctx context.Context, taskID string, now time.Time) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bypass_records WHERE task_id = ? AND expires_at > ?",
		taskID, now.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check bypass: %w", err)
	}
	return count > 0, nil
}

// ListBypasses returns records for taskID, newest first; all records
// when taskID is empty.
func (l *SQLiteLedger) ListBypasses(ctx context.Context, taskID string) ([]*models.BypassRecord, error) {
	query := `SELECT id, task_id, reason, requested_by, created_at, expires_at, consensus_score
		FROM bypass_records`
	var args []any
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, taskID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bypasses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.BypassRecord
	for rows.Next() {
		rec := &models.BypassRecord{}
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Reason, &rec.RequestedBy,
			&rec.CreatedAt, &rec.ExpiresAt, &rec.ConsensusScoreAtTime); err != nil {
			return nil, fmt.Errorf("scan bypass record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
