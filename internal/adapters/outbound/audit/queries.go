package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sentinelfix/sentinel/internal/domain"
)

const selectEntry = `
	SELECT audit_id, session_id, created_at, updated_at, file_path,
	       pattern_name, line_number, violation_text, fix_strategy, fix_code,
	       before_hash, after_hash, syntax_valid, imports_valid, test_status,
	       validation_errors, decision, status, user_id, execution_time_ms,
	       lines_changed, context_data, rollback_data, rolled_back_at
	FROM fix_audits`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.AuditEntry, error) {
	var (
		e                          domain.AuditEntry
		createdAt, updatedAt       string
		testStatus, decision       string
		status                     string
		errsJSON, ctxJSON          string
		syntaxValid, importsValid  int
		rolledBackAt               sql.NullString
	)
	err := row.Scan(
		&e.AuditID, &e.SessionID, &createdAt, &updatedAt, &e.FilePath,
		&e.PatternName, &e.Line, &e.ViolationText, &e.FixStrategy, &e.FixCode,
		&e.OriginalHash, &e.ModifiedHash, &syntaxValid, &importsValid, &testStatus,
		&errsJSON, &decision, &status, &e.UserID, &e.ExecutionTimeMS,
		&e.LinesChanged, &ctxJSON, &e.RollbackData, &rolledBackAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	e.TestStatus = domain.TestStatus(testStatus)
	e.Decision = domain.Decision(decision)
	e.Status = domain.AuditStatus(status)
	e.SyntaxValid = syntaxValid == 1
	e.ImportsValid = importsValid == 1
	if errsJSON != "" && errsJSON != "[]" {
		if err := json.Unmarshal([]byte(errsJSON), &e.ValidationErrors); err != nil {
			return nil, fmt.Errorf("unmarshaling validation errors for %s: %w", e.AuditID, err)
		}
	}
	if ctxJSON != "" && ctxJSON != "{}" {
		if err := json.Unmarshal([]byte(ctxJSON), &e.ContextData); err != nil {
			return nil, fmt.Errorf("unmarshaling context data for %s: %w", e.AuditID, err)
		}
	}
	if rolledBackAt.Valid && rolledBackAt.String != "" {
		t := parseTime(rolledBackAt.String)
		e.RolledBackAt = &t
	}
	return &e, nil
}

// SessionSummary aggregates one session: status and pattern counts,
// success rate, total execution time and distinct files modified.
func (s *Store) SessionSummary(sessionID string) (*domain.SessionSummary, error) {
	summary := &domain.SessionSummary{
		SessionID:     sessionID,
		StatusCounts:  make(map[string]int64),
		PatternCounts: make(map[string]int64),
	}

	rows, err := s.db.Query(`
		SELECT status, pattern_name, execution_time_ms, file_path
		FROM fix_audits WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var total, applied int64
	files := make(map[string]bool)
	for rows.Next() {
		var status, pattern, filePath string
		var execMS int64
		if err := rows.Scan(&status, &pattern, &execMS, &filePath); err != nil {
			return nil, err
		}
		summary.StatusCounts[status]++
		summary.PatternCounts[pattern]++
		summary.TotalTimeMS += execMS
		total++
		if status == string(domain.StatusApplied) || status == string(domain.StatusRolledBack) {
			applied++
			files[filePath] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if total > 0 {
		summary.SuccessRate = float64(applied) / float64(total)
	}
	summary.FilesModified = int64(len(files))
	return summary, nil
}

// PatternHistories returns the all-time per-pattern record across every
// session ever written.
func (s *Store) PatternHistories() ([]domain.PatternHistory, error) {
	rows, err := s.db.Query(`
		SELECT pattern_name,
		       COUNT(*) AS attempts,
		       SUM(CASE WHEN status IN ('applied','rolled_back') THEN 1 ELSE 0 END) AS applied,
		       SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failed,
		       SUM(CASE WHEN status = 'rolled_back' THEN 1 ELSE 0 END) AS rolled_back,
		       AVG(execution_time_ms) AS avg_time_ms
		FROM fix_audits
		GROUP BY pattern_name
		ORDER BY pattern_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []domain.PatternHistory
	for rows.Next() {
		var ph domain.PatternHistory
		if err := rows.Scan(&ph.PatternName, &ph.Attempts, &ph.Applied,
			&ph.Failed, &ph.RolledBack, &ph.AvgTimeMS); err != nil {
			return nil, err
		}
		if ph.Attempts > 0 {
			ph.SuccessRate = float64(ph.Applied) / float64(ph.Attempts)
		}
		histories = append(histories, ph)
	}
	return histories, rows.Err()
}

// UpsertRuleStats writes rule statistics, last writer wins. Acceptable
// for aggregates, never used for audit entries.
func (s *Store) UpsertRuleStats(stats []domain.RuleStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range stats {
		_, err := tx.Exec(`
			INSERT INTO rule_statistics (
				rule_id, category, total_checks, violations_found,
				true_positives, false_positives, avg_confidence,
				avg_execution_time_ms, last_updated
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(rule_id) DO UPDATE SET
				category = excluded.category,
				total_checks = excluded.total_checks,
				violations_found = excluded.violations_found,
				true_positives = excluded.true_positives,
				false_positives = excluded.false_positives,
				avg_confidence = excluded.avg_confidence,
				avg_execution_time_ms = excluded.avg_execution_time_ms,
				last_updated = excluded.last_updated`,
			st.RuleID, st.Category, st.TotalChecks, st.ViolationsFound,
			st.TruePositives, st.FalsePositives, st.AvgConfidence,
			st.AvgExecutionMS, fmtTime(st.LastUpdated),
		)
		if err != nil {
			return fmt.Errorf("upserting stats for %s: %w", st.RuleID, err)
		}
	}
	return tx.Commit()
}

// RuleStats loads all rule statistics.
func (s *Store) RuleStats() ([]domain.RuleStats, error) {
	rows, err := s.db.Query(`
		SELECT rule_id, category, total_checks, violations_found,
		       true_positives, false_positives, avg_confidence,
		       avg_execution_time_ms, last_updated
		FROM rule_statistics ORDER BY rule_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.RuleStats
	for rows.Next() {
		var st domain.RuleStats
		var lastUpdated string
		if err := rows.Scan(&st.RuleID, &st.Category, &st.TotalChecks,
			&st.ViolationsFound, &st.TruePositives, &st.FalsePositives,
			&st.AvgConfidence, &st.AvgExecutionMS, &lastUpdated); err != nil {
			return nil, err
		}
		st.LastUpdated = parseTime(lastUpdated)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// RecordFeedback appends one human verdict on a reported violation.
func (s *Store) RecordFeedback(fb *domain.ViolationFeedback) error {
	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO violation_feedback (rule_id, file_path, line_number, is_false_positive, feedback, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fb.RuleID, fb.FilePath, fb.Line, boolInt(fb.IsFalsePositive), fb.Feedback, fmtTime(fb.Timestamp))
	if err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	fb.ID, _ = res.LastInsertId()
	return nil
}

// FeedbackForRule returns all feedback recorded against one rule.
func (s *Store) FeedbackForRule(ruleID string) ([]domain.ViolationFeedback, error) {
	rows, err := s.db.Query(`
		SELECT id, rule_id, file_path, line_number, is_false_positive, feedback, timestamp
		FROM violation_feedback WHERE rule_id = ? ORDER BY id`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fbs []domain.ViolationFeedback
	for rows.Next() {
		var fb domain.ViolationFeedback
		var isFP int
		var ts string
		if err := rows.Scan(&fb.ID, &fb.RuleID, &fb.FilePath, &fb.Line, &isFP, &fb.Feedback, &ts); err != nil {
			return nil, err
		}
		fb.IsFalsePositive = isFP == 1
		fb.Timestamp = parseTime(ts)
		fbs = append(fbs, fb)
	}
	return fbs, rows.Err()
}
