// Package audit persists the fix audit trail in an embedded SQLite
// database under .sentinel/audit.db. The trail is append-then-update,
// keyed by audit ID, and tolerates concurrent readers (WAL mode).
package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sentinelfix/sentinel/internal/domain"
)

const dbFile = ".sentinel/audit.db"

const schema = `
CREATE TABLE IF NOT EXISTS fix_audits (
	audit_id          TEXT PRIMARY KEY,
	session_id        TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	file_path         TEXT NOT NULL,
	pattern_name      TEXT NOT NULL,
	line_number       INTEGER NOT NULL,
	violation_text    TEXT,
	fix_strategy      TEXT,
	fix_code          TEXT,
	before_hash       TEXT,
	after_hash        TEXT,
	syntax_valid      INTEGER NOT NULL DEFAULT 0,
	imports_valid     INTEGER NOT NULL DEFAULT 0,
	test_status       TEXT,
	validation_errors TEXT,
	decision          TEXT,
	status            TEXT NOT NULL,
	user_id           TEXT,
	execution_time_ms INTEGER NOT NULL DEFAULT 0,
	lines_changed     INTEGER NOT NULL DEFAULT 0,
	context_data      TEXT,
	rollback_data     TEXT,
	rolled_back_at    TEXT
);
CREATE INDEX IF NOT EXISTS idx_fix_audits_session ON fix_audits(session_id);
CREATE INDEX IF NOT EXISTS idx_fix_audits_file    ON fix_audits(file_path);
CREATE INDEX IF NOT EXISTS idx_fix_audits_pattern ON fix_audits(pattern_name);

CREATE TABLE IF NOT EXISTS rule_statistics (
	rule_id               TEXT PRIMARY KEY,
	category              TEXT,
	total_checks          INTEGER NOT NULL DEFAULT 0,
	violations_found      INTEGER NOT NULL DEFAULT 0,
	true_positives        INTEGER NOT NULL DEFAULT 0,
	false_positives       INTEGER NOT NULL DEFAULT 0,
	avg_confidence        REAL NOT NULL DEFAULT 0,
	avg_execution_time_ms REAL NOT NULL DEFAULT 0,
	last_updated          TEXT
);

CREATE TABLE IF NOT EXISTS violation_feedback (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id           TEXT NOT NULL,
	file_path         TEXT,
	line_number       INTEGER,
	is_false_positive INTEGER NOT NULL DEFAULT 0,
	feedback          TEXT,
	timestamp         TEXT NOT NULL
);
`

// Store implements domain.AuditStore over database/sql.
type Store struct {
	db *sql.DB
}

// Open creates or opens the project's audit database and migrates the
// schema.
func Open(projectPath string) (*Store, error) {
	path := filepath.Join(projectPath, dbFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenPath opens a database at an explicit file path. Used by tests.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append inserts a new audit entry. The audit ID must be unique; the
// trail is never overwritten destructively.
func (s *Store) Append(e *domain.AuditEntry) error {
	errsJSON, ctxJSON, err := marshalJSONFields(e)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO fix_audits (
			audit_id, session_id, created_at, updated_at, file_path,
			pattern_name, line_number, violation_text, fix_strategy, fix_code,
			before_hash, after_hash, syntax_valid, imports_valid, test_status,
			validation_errors, decision, status, user_id, execution_time_ms,
			lines_changed, context_data, rollback_data, rolled_back_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AuditID, e.SessionID, fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt), e.FilePath,
		e.PatternName, e.Line, e.ViolationText, e.FixStrategy, e.FixCode,
		e.OriginalHash, e.ModifiedHash, boolInt(e.SyntaxValid), boolInt(e.ImportsValid), string(e.TestStatus),
		errsJSON, string(e.Decision), string(e.Status), e.UserID, e.ExecutionTimeMS,
		e.LinesChanged, ctxJSON, e.RollbackData, fmtTimePtr(e.RolledBackAt),
	)
	if err != nil {
		return fmt.Errorf("appending audit entry %s: %w", e.AuditID, err)
	}
	return nil
}

// Update rewrites the mutable lifecycle fields of an existing entry.
func (s *Store) Update(e *domain.AuditEntry) error {
	errsJSON, ctxJSON, err := marshalJSONFields(e)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE fix_audits SET
			updated_at = ?, fix_code = ?, before_hash = ?, after_hash = ?,
			syntax_valid = ?, imports_valid = ?, test_status = ?,
			validation_errors = ?, decision = ?, status = ?,
			execution_time_ms = ?, lines_changed = ?, context_data = ?,
			rollback_data = ?, rolled_back_at = ?
		WHERE audit_id = ?`,
		fmtTime(e.UpdatedAt), e.FixCode, e.OriginalHash, e.ModifiedHash,
		boolInt(e.SyntaxValid), boolInt(e.ImportsValid), string(e.TestStatus),
		errsJSON, string(e.Decision), string(e.Status),
		e.ExecutionTimeMS, e.LinesChanged, ctxJSON,
		e.RollbackData, fmtTimePtr(e.RolledBackAt),
		e.AuditID,
	)
	if err != nil {
		return fmt.Errorf("updating audit entry %s: %w", e.AuditID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("audit entry %s not found", e.AuditID)
	}
	return nil
}

// Entry loads one audit entry by ID.
func (s *Store) Entry(auditID string) (*domain.AuditEntry, error) {
	row := s.db.QueryRow(selectEntry+` WHERE audit_id = ?`, auditID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit entry %s not found", auditID)
	}
	return e, err
}

// FileHistory returns every entry for a file, newest first.
func (s *Store) FileHistory(filePath string) ([]domain.AuditEntry, error) {
	rows, err := s.db.Query(selectEntry+` WHERE file_path = ? ORDER BY created_at DESC, audit_id DESC`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func marshalJSONFields(e *domain.AuditEntry) (string, string, error) {
	errsJSON := "[]"
	if len(e.ValidationErrors) > 0 {
		b, err := json.Marshal(e.ValidationErrors)
		if err != nil {
			return "", "", fmt.Errorf("marshaling validation errors: %w", err)
		}
		errsJSON = string(b)
	}
	ctxJSON := "{}"
	if len(e.ContextData) > 0 {
		b, err := json.Marshal(e.ContextData)
		if err != nil {
			return "", "", fmt.Errorf("marshaling context data: %w", err)
		}
		ctxJSON = string(b)
	}
	return errsJSON, ctxJSON, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
