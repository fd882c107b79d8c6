package domain

import (
	"context"
	"time"
)

// ProjectScanner scans a project directory and returns file metadata.
type ProjectScanner interface {
	Scan(projectPath string, excludePaths ...string) (*ScanResult, error)
}

// ScanResult holds the result of scanning a project directory.
type ScanResult struct {
	RootPath    string   `json:"root_path"`
	SourceFiles []string `json:"source_files"`
	TestFiles   []string `json:"test_files"`
	ConfigFiles []string `json:"config_files"`
	AllFiles    []string `json:"all_files"`
	HasGoMod    bool     `json:"has_go_mod"`
	HasPackage  bool     `json:"has_package_json"`
	HasPytest   bool     `json:"has_pytest"`
}

// StructuralParser turns source text into an abstract parse tree. A file
// the parser does not support yields (nil, nil): structural rules then
// degrade to zero findings rather than erroring.
type StructuralParser interface {
	Supports(filePath string) bool
	Parse(filePath string, src []byte) (*ParseTree, error)
}

// ConfigLoader loads the engine configuration for a project.
type ConfigLoader interface {
	Load(projectPath string) (EngineConfig, error)
}

// PolicyTables are the externally loadable safety policy lists. A pattern
// may appear in at most one of Denylist, ReviewRequired and PreApproved.
type PolicyTables struct {
	Denylist       []string `yaml:"denylist"        json:"denylist"`
	ReviewRequired []string `yaml:"review_required" json:"review_required"`
	PreApproved    []string `yaml:"pre_approved"    json:"pre_approved"`
	ProtectedFiles []string `yaml:"protected_files" json:"protected_files"`
	CriticalPaths  []string `yaml:"critical_paths"  json:"critical_paths"`
}

// PolicyLoader loads safety policy tables for a project.
type PolicyLoader interface {
	Load(projectPath string) (PolicyTables, error)
}

// SessionSummary aggregates one fix session's audit entries.
type SessionSummary struct {
	SessionID     string           `json:"session_id"`
	StatusCounts  map[string]int64 `json:"status_counts"`
	PatternCounts map[string]int64 `json:"pattern_counts"`
	SuccessRate   float64          `json:"success_rate"`
	TotalTimeMS   int64            `json:"total_time_ms"`
	FilesModified int64            `json:"files_modified"`
}

// PatternHistory is the all-time record for one pattern across sessions.
type PatternHistory struct {
	PatternName string  `json:"pattern_name"`
	Attempts    int64   `json:"attempts"`
	Applied     int64   `json:"applied"`
	Failed      int64   `json:"failed"`
	RolledBack  int64   `json:"rolled_back"`
	SuccessRate float64 `json:"success_rate"`
	AvgTimeMS   float64 `json:"avg_time_ms"`
}

// AuditStore is the durable, process-independent audit trail. Appends and
// updates are keyed by audit ID; entries are never deleted. The store must
// tolerate concurrent readers at all times.
type AuditStore interface {
	Append(entry *AuditEntry) error
	Update(entry *AuditEntry) error
	Entry(auditID string) (*AuditEntry, error)
	SessionSummary(sessionID string) (*SessionSummary, error)
	PatternHistories() ([]PatternHistory, error)
	FileHistory(filePath string) ([]AuditEntry, error)
	UpsertRuleStats(stats []RuleStats) error
	RuleStats() ([]RuleStats, error)
	RecordFeedback(fb *ViolationFeedback) error
	FeedbackForRule(ruleID string) ([]ViolationFeedback, error)
	Close() error
}

// CheckpointStore persists orchestration checkpoints.
type CheckpointStore interface {
	Save(projectPath string, cp *Checkpoint) error
	Load(projectPath, checkpointID string) (*Checkpoint, error)
	Latest(projectPath string) (*Checkpoint, error)
}

// TestRunner executes an external test command bounded by the context
// deadline. A deadline overrun reports TestTimeout, never an error.
type TestRunner interface {
	Run(ctx context.Context, projectPath string, command []string) (TestStatus, string, error)
}

// Confirmer is the interactive confirmation capability used only in
// interactive mode.
type Confirmer interface {
	Confirm(v EnsembleViolation, diff string) (bool, error)
}

// GitInfo reports version-control metadata for session stamping.
type GitInfo interface {
	IsGitRepo(projectPath string) bool
	CommitHash(projectPath string) (string, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
