package domain

import "time"

// RuleFinding is a single detector's verdict for one line of one file.
// Findings are ephemeral: they exist only long enough to be aggregated
// into EnsembleViolations and are never persisted.
type RuleFinding struct {
	RuleID     string            `json:"rule_id"`
	Line       int               `json:"line"`
	Column     int               `json:"column,omitempty"`
	Confidence float64           `json:"confidence"` // [-1,1]; negative = counter-evidence
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EnsembleViolation is the aggregated result of voting over all rule
// findings that share a (pattern, line). Immutable once produced for a
// scan pass; confidence is always in [0,1].
type EnsembleViolation struct {
	PatternName         string   `json:"pattern_name"`
	FilePath            string   `json:"file_path"`
	Line                int      `json:"line"`
	Message             string   `json:"message"`
	Confidence          float64  `json:"confidence"`
	ContributingRuleIDs []string `json:"contributing_rule_ids"`
	MatchedText         string   `json:"matched_text,omitempty"`
}

// RiskTier classifies how risky auto-applying a fix would be.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

// SafetyDecision is the stateless policy verdict for one
// (pattern, file, matched text) combination.
type SafetyDecision struct {
	IsSafe   bool     `json:"is_safe"`
	Reason   string   `json:"reason"`
	RiskTier RiskTier `json:"risk_tier"`
}

// TestStatus is the outcome of an optional external test run.
type TestStatus string

const (
	TestNotRun  TestStatus = ""
	TestPassed  TestStatus = "PASSED"
	TestFailed  TestStatus = "FAILED"
	TestTimeout TestStatus = "TIMEOUT"
)

// FixValidation records everything the validation pipeline learned about
// one candidate transformation.
type FixValidation struct {
	OriginalHash string     `json:"original_hash"`
	ModifiedHash string     `json:"modified_hash"`
	SyntaxValid  bool       `json:"syntax_valid"`
	ImportsValid bool       `json:"imports_valid"`
	TestStatus   TestStatus `json:"test_status,omitempty"`
	DiffText     string     `json:"diff_text"`
	LinesChanged int        `json:"lines_changed"`
	Error        string     `json:"error,omitempty"`
}

// FixAttempt is one application (or rejection) of a transformation
// resolving one violation in one file. Owned by the orchestrator for the
// duration of the attempt, then persisted as an AuditEntry.
type FixAttempt struct {
	FilePath        string         `json:"file_path"`
	Pattern         string         `json:"pattern"`
	Line            int            `json:"line"`
	OriginalContent string         `json:"-"`
	ModifiedContent string         `json:"-"`
	Validation      *FixValidation `json:"validation,omitempty"`
	Applied         bool           `json:"applied"`
	RolledBack      bool           `json:"rolled_back"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Decision records who (or what) approved or rejected a fix.
type Decision string

const (
	DecisionAutoApproved     Decision = "auto_approved"
	DecisionUserApproved     Decision = "user_approved"
	DecisionUserRejected     Decision = "user_rejected"
	DecisionSystemRejected   Decision = "system_rejected"
	DecisionValidationFailed Decision = "validation_failed"
)

// AuditStatus is the lifecycle state of an audit entry:
// proposed -> (validated | failed) -> (applied | rejected) -> [rolled_back].
type AuditStatus string

const (
	StatusProposed   AuditStatus = "proposed"
	StatusValidated  AuditStatus = "validated"
	StatusApplied    AuditStatus = "applied"
	StatusRejected   AuditStatus = "rejected"
	StatusRolledBack AuditStatus = "rolled_back"
	StatusFailed     AuditStatus = "failed"
)

// AuditEntry is the durable record of one fix attempt. Entries are
// append-then-update: created at proposal time, updated through the
// lifecycle, never deleted.
type AuditEntry struct {
	AuditID          string            `json:"audit_id"`
	SessionID        string            `json:"session_id"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	FilePath         string            `json:"file_path"`
	PatternName      string            `json:"pattern_name"`
	Line             int               `json:"line_number"`
	ViolationText    string            `json:"violation_text"`
	FixStrategy      string            `json:"fix_strategy"`
	FixCode          string            `json:"fix_code,omitempty"`
	OriginalHash     string            `json:"before_hash"`
	ModifiedHash     string            `json:"after_hash"`
	SyntaxValid      bool              `json:"syntax_valid"`
	ImportsValid     bool              `json:"imports_valid"`
	TestStatus       TestStatus        `json:"test_status,omitempty"`
	ValidationErrors []string          `json:"validation_errors,omitempty"`
	Decision         Decision          `json:"decision,omitempty"`
	Status           AuditStatus       `json:"status"`
	UserID           string            `json:"user_id,omitempty"`
	ExecutionTimeMS  int64             `json:"execution_time_ms"`
	LinesChanged     int               `json:"lines_changed"`
	ContextData      map[string]string `json:"context_data,omitempty"`
	RollbackData     string            `json:"-"`
	RolledBackAt     *time.Time        `json:"rolled_back_at,omitempty"`
}

// Checkpoint is a durable snapshot of orchestration progress enabling
// resumable batch execution.
type Checkpoint struct {
	CheckpointID    string    `json:"checkpoint_id"`
	Timestamp       time.Time `json:"timestamp"`
	CompletedFixIDs []string  `json:"completed_fix_ids"`
	RemainingCount  int       `json:"remaining_count"`
	Resumable       bool      `json:"resumable"`
}

// RuleStats accumulates longitudinal quality data for one rule. It feeds
// offline precision analysis and never gates runtime behavior.
type RuleStats struct {
	RuleID          string    `json:"rule_id"`
	Category        string    `json:"category"`
	TotalChecks     int64     `json:"total_checks"`
	ViolationsFound int64     `json:"violations_found"`
	TruePositives   int64     `json:"true_positives"`
	FalsePositives  int64     `json:"false_positives"`
	AvgConfidence   float64   `json:"avg_confidence"`
	AvgExecutionMS  float64   `json:"avg_execution_time_ms"`
	LastUpdated     time.Time `json:"last_updated"`
}

// ViolationFeedback is a human judgment on one reported violation,
// recorded for precision tracking.
type ViolationFeedback struct {
	ID              int64     `json:"id"`
	RuleID          string    `json:"rule_id"`
	FilePath        string    `json:"file_path"`
	Line            int       `json:"line_number"`
	IsFalsePositive bool      `json:"is_false_positive"`
	Feedback        string    `json:"feedback,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ParseTree is the abstract structural view of one source file, supplied
// by a language-specific parser adapter. Rules operate on node kinds and
// attributes, never on a concrete parser's types.
type ParseTree struct {
	Language string `json:"language"`
	Nodes    []Node `json:"nodes"`
}

// NodeKind classifies a structural node.
type NodeKind string

const (
	NodeFunction  NodeKind = "function"
	NodeMethod    NodeKind = "method"
	NodeStruct    NodeKind = "struct"
	NodeInterface NodeKind = "interface"
	NodeImport    NodeKind = "import"
)

// Node is one structural element of a parsed file.
type Node struct {
	Kind      NodeKind          `json:"kind"`
	Name      string            `json:"name"`
	StartLine int               `json:"start_line"`
	EndLine   int               `json:"end_line"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// NodesOfKind returns all nodes of the given kind.
func (t *ParseTree) NodesOfKind(kind NodeKind) []Node {
	if t == nil {
		return nil
	}
	var out []Node
	for _, n := range t.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// EnclosingNode returns the innermost function or method containing line,
// or nil if the line is outside every declaration.
func (t *ParseTree) EnclosingNode(line int) *Node {
	if t == nil {
		return nil
	}
	var best *Node
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Kind != NodeFunction && n.Kind != NodeMethod {
			continue
		}
		if line < n.StartLine || line > n.EndLine {
			continue
		}
		if best == nil || n.StartLine > best.StartLine {
			best = n
		}
	}
	return best
}
