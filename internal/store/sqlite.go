package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/store/migrations"
)

// SQLite stores audit records in a single table.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) dataDir/audits.db and applies
// pending migrations.
func NewSQLite(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audits.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Save(ctx context.Context, r models.AuditRecord) error {
	if err := validate(r); err != nil {
		return err
	}

	resultJSON, err := json.Marshal(r.AuditResult)
	if err != nil {
		return fmt.Errorf("marshalling audit result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(id, user_id, content_type, original_input, extracted_text, transcript, audit_result, status, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, string(r.ContentType), r.OriginalInput, r.ExtractedText, r.Transcript,
		string(resultJSON), r.AuditResult.Status, r.AuditResult.Score,
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

func (s *SQLite) ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content_type, original_input, extracted_text, transcript, audit_result, created_at
		FROM audit_records
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			r           models.AuditRecord
			contentType string
			resultJSON  string
			createdAt   string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &contentType, &r.OriginalInput, &r.ExtractedText,
			&r.Transcript, &resultJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		r.ContentType = models.ContentType(contentType)
		if err := json.Unmarshal([]byte(resultJSON), &r.AuditResult); err != nil {
			return nil, fmt.Errorf("decoding audit result %s: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// migrate runs all pending migrations.
func (s *SQLite) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_audit_records.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}
