package audit_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/domain"
)

func openStore(t *testing.T) *audit.Store {
	t.Helper()
	store, err := audit.OpenPath(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry(auditID, sessionID string) *domain.AuditEntry {
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	return &domain.AuditEntry{
		AuditID:          auditID,
		SessionID:        sessionID,
		CreatedAt:        now,
		UpdatedAt:        now,
		FilePath:         "internal/server/handler.go",
		PatternName:      "debug-print",
		Line:             42,
		ViolationText:    `fmt.Println("here")`,
		FixStrategy:      "remove_line",
		OriginalHash:     "aaa",
		ModifiedHash:     "bbb",
		SyntaxValid:      true,
		ImportsValid:     true,
		TestStatus:       domain.TestPassed,
		ValidationErrors: []string{},
		Decision:         domain.DecisionAutoApproved,
		Status:           domain.StatusApplied,
		UserID:           "ci",
		ExecutionTimeMS:  12,
		LinesChanged:     1,
		ContextData:      map[string]string{"mode": "standard"},
		RollbackData:     "original file content",
	}
}

func TestStore_AppendAndEntryRoundTrip(t *testing.T) {
	store := openStore(t)

	want := sampleEntry("a-1", "s-1")
	require.NoError(t, store.Append(want))

	got, err := store.Entry("a-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.FilePath, got.FilePath)
	assert.Equal(t, want.PatternName, got.PatternName)
	assert.Equal(t, want.Line, got.Line)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Decision, got.Decision)
	assert.Equal(t, want.ContextData, got.ContextData)
	assert.Equal(t, want.RollbackData, got.RollbackData)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Nil(t, got.RolledBackAt)
}

func TestStore_EntryMissing(t *testing.T) {
	store := openStore(t)

	_, err := store.Entry("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_UpdateRewritesEntry(t *testing.T) {
	store := openStore(t)

	entry := sampleEntry("a-1", "s-1")
	entry.Status = domain.StatusValidated
	require.NoError(t, store.Append(entry))

	rolledBack := time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)
	entry.Status = domain.StatusRolledBack
	entry.RolledBackAt = &rolledBack
	require.NoError(t, store.Update(entry))

	got, err := store.Entry("a-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRolledBack, got.Status)
	require.NotNil(t, got.RolledBackAt)
	assert.True(t, got.RolledBackAt.Equal(rolledBack))
}

func TestStore_UpdateUnknownEntry(t *testing.T) {
	store := openStore(t)

	err := store.Update(sampleEntry("ghost", "s-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_FileHistoryFiltersByPath(t *testing.T) {
	store := openStore(t)

	e1 := sampleEntry("a-1", "s-1")
	e2 := sampleEntry("a-2", "s-1")
	e2.FilePath = "other/file.go"
	require.NoError(t, store.Append(e1))
	require.NoError(t, store.Append(e2))

	history, err := store.FileHistory("internal/server/handler.go")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].AuditID)
}

func TestStore_FileHistoryNewestFirst(t *testing.T) {
	store := openStore(t)

	older := sampleEntry("a-1", "s-1")
	newer := sampleEntry("a-2", "s-1")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	require.NoError(t, store.Append(older))
	require.NoError(t, store.Append(newer))

	history, err := store.FileHistory("internal/server/handler.go")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a-2", history[0].AuditID)
	assert.Equal(t, "a-1", history[1].AuditID)
}

func TestStore_SessionSummary(t *testing.T) {
	store := openStore(t)

	applied := sampleEntry("a-1", "s-1")
	rejected := sampleEntry("a-2", "s-1")
	rejected.Status = domain.StatusRejected
	rejected.PatternName = "todo-comment"
	rejected.FilePath = "other/file.go"
	otherSession := sampleEntry("a-3", "s-2")
	require.NoError(t, store.Append(applied))
	require.NoError(t, store.Append(rejected))
	require.NoError(t, store.Append(otherSession))

	summary, err := store.SessionSummary("s-1")
	require.NoError(t, err)

	assert.Equal(t, "s-1", summary.SessionID)
	assert.Equal(t, int64(1), summary.StatusCounts["applied"])
	assert.Equal(t, int64(1), summary.StatusCounts["rejected"])
	assert.Equal(t, int64(1), summary.PatternCounts["debug-print"])
	assert.Equal(t, 0.5, summary.SuccessRate)
	assert.Equal(t, int64(24), summary.TotalTimeMS)

	// Only applied fixes count as modified files.
	assert.Equal(t, int64(1), summary.FilesModified)
}

func TestStore_PatternHistories(t *testing.T) {
	store := openStore(t)

	applied := sampleEntry("a-1", "s-1")
	rolledBack := sampleEntry("a-2", "s-1")
	rolledBack.Status = domain.StatusRolledBack
	failed := sampleEntry("a-3", "s-1")
	failed.Status = domain.StatusFailed
	failed.PatternName = "mock-naming"
	require.NoError(t, store.Append(applied))
	require.NoError(t, store.Append(rolledBack))
	require.NoError(t, store.Append(failed))

	histories, err := store.PatternHistories()
	require.NoError(t, err)
	require.Len(t, histories, 2)

	// Sorted by pattern name.
	assert.Equal(t, "debug-print", histories[0].PatternName)
	assert.Equal(t, int64(2), histories[0].Attempts)
	assert.Equal(t, int64(1), histories[0].Applied)
	assert.Equal(t, int64(1), histories[0].RolledBack)

	assert.Equal(t, "mock-naming", histories[1].PatternName)
	assert.Equal(t, int64(1), histories[1].Failed)
}

func TestStore_RuleStatsUpsert(t *testing.T) {
	store := openStore(t)

	first := domain.RuleStats{
		RuleID:          "regex:debug-print",
		Category:        "maintainability",
		TotalChecks:     10,
		ViolationsFound: 3,
		AvgConfidence:   0.8,
		LastUpdated:     time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertRuleStats([]domain.RuleStats{first}))

	first.TotalChecks = 25
	first.TruePositives = 2
	require.NoError(t, store.UpsertRuleStats([]domain.RuleStats{first}))

	stats, err := store.RuleStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(25), stats[0].TotalChecks)
	assert.Equal(t, int64(2), stats[0].TruePositives)
	assert.Equal(t, "maintainability", stats[0].Category)
}

func TestStore_FeedbackRoundTrip(t *testing.T) {
	store := openStore(t)

	fb := &domain.ViolationFeedback{
		RuleID:          "regex:hardcoded-secret",
		FilePath:        "cfg/settings.go",
		Line:            7,
		IsFalsePositive: true,
		Feedback:        "test fixture, not a real credential",
	}
	require.NoError(t, store.RecordFeedback(fb))
	assert.NotZero(t, fb.ID)
	assert.False(t, fb.Timestamp.IsZero())

	got, err := store.FeedbackForRule("regex:hardcoded-secret")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsFalsePositive)
	assert.Equal(t, "cfg/settings.go", got[0].FilePath)

	none, err := store.FeedbackForRule("regex:debug-print")
	require.NoError(t, err)
	assert.Empty(t, none)
}
