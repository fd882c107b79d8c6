package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/conflict"
	"github.com/sentinelfix/sentinel/internal/domain/fixer"
	"github.com/sentinelfix/sentinel/internal/domain/impact"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

// FixService orchestrates a batch of violations:
// safety analysis -> conflict resolution -> mode gating -> execution,
// one attempt at a time, with checkpointing and a durable audit trail.
type FixService struct {
	classifier  *safety.Classifier
	registry    *rules.Registry
	pipeline    *fixer.Pipeline
	parser      domain.StructuralParser
	audit       domain.AuditStore
	checkpoints domain.CheckpointStore
	confirmer   domain.Confirmer
	git         domain.GitInfo
	clock       domain.Clock
}

// NewFixService wires the orchestrator. confirmer may be nil unless
// interactive mode is requested; git may be nil.
func NewFixService(classifier *safety.Classifier, registry *rules.Registry,
	pipeline *fixer.Pipeline, parser domain.StructuralParser,
	audit domain.AuditStore, checkpoints domain.CheckpointStore,
	confirmer domain.Confirmer, git domain.GitInfo) *FixService {
	return &FixService{
		classifier:  classifier,
		registry:    registry,
		pipeline:    pipeline,
		parser:      parser,
		audit:       audit,
		checkpoints: checkpoints,
		confirmer:   confirmer,
		git:         git,
		clock:       domain.SystemClock{},
	}
}

// FixOptions selects how a batch is executed.
type FixOptions struct {
	Mode       domain.Mode `json:"mode"`
	UserID     string      `json:"user_id,omitempty"`
	Resume     string      `json:"resume,omitempty"` // checkpoint ID, or "latest"
	WithImpact bool        `json:"with_impact,omitempty"`
}

// AttemptOutcome is one fix attempt's summary in the batch report.
type AttemptOutcome struct {
	FixID    string             `json:"fix_id"`
	AuditID  string             `json:"audit_id"`
	FilePath string             `json:"file_path"`
	Line     int                `json:"line"`
	Pattern  string             `json:"pattern"`
	Status   domain.AuditStatus `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Diff     string             `json:"diff,omitempty"`
}

// SkippedFix records a candidate that mode gating refused, with reason.
type SkippedFix struct {
	FixID    string          `json:"fix_id"`
	FilePath string          `json:"file_path"`
	Line     int             `json:"line"`
	Pattern  string          `json:"pattern"`
	Reason   string          `json:"reason"`
	Decision domain.Decision `json:"decision"`
}

// FixReport is the aggregate outcome of one batch.
type FixReport struct {
	SessionID    string             `json:"session_id"`
	Mode         domain.Mode        `json:"mode"`
	CommitHash   string             `json:"commit_hash,omitempty"`
	Attempts     []AttemptOutcome   `json:"attempts"`
	Skipped      []SkippedFix       `json:"skipped,omitempty"`
	Dropped      []conflict.Dropped `json:"-"`
	DroppedCount int                `json:"dropped_conflicts"`
	Applied      int                `json:"applied"`
	Validated    int                `json:"validated"`
	Failed       int                `json:"failed"`
	Interrupted  bool               `json:"interrupted,omitempty"`
	CheckpointID string             `json:"checkpoint_id,omitempty"`
	Impact       *impact.Report     `json:"impact,omitempty"`
	Duration     time.Duration      `json:"duration_ns"`
}

// FixID is the stable identity of one candidate fix, derived from
// (file, pattern, line) so checkpoints survive process restarts.
func FixID(v domain.EnsembleViolation) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", v.FilePath, v.PatternName, v.Line)))
	return hex.EncodeToString(sum[:6])
}

// Execute runs the batch. Cancellation is honored only between attempts;
// on cancellation the current checkpoint is persisted so a later run can
// resume. File- and fix-local failures never abort the batch.
func (s *FixService) Execute(ctx context.Context, projectPath string,
	violations []domain.EnsembleViolation, cfg domain.EngineConfig, opts FixOptions) (*FixReport, error) {

	mode := opts.Mode
	if mode == "" {
		mode = cfg.Mode
	}
	if mode == domain.ModeInteractive && s.confirmer == nil {
		return nil, fmt.Errorf("interactive mode requires a confirmer")
	}

	report := &FixReport{
		SessionID: uuid.NewString(),
		Mode:      mode,
	}
	if s.git != nil && s.git.IsGitRepo(projectPath) {
		if hash, err := s.git.CommitHash(projectPath); err == nil {
			report.CommitHash = hash
		}
	}
	start := s.clock.Now()

	// Build pending fixes and resolve conflicts deterministically.
	pending := s.pendingFixes(violations)
	kept, dropped := conflict.Resolve(pending)
	report.Dropped = dropped
	report.DroppedCount = len(dropped)

	completed, err := s.completedFromCheckpoint(projectPath, opts.Resume)
	if err != nil {
		return nil, err
	}

	checkpointID := uuid.NewString()
	sinceCheckpoint := 0

	for i, fix := range kept {
		if ctx.Err() != nil {
			// Between attempts only: persist progress and stop cleanly.
			report.Interrupted = true
			report.CheckpointID = checkpointID
			s.saveCheckpoint(projectPath, checkpointID, completedIDs(kept, i), len(kept)-i, true)
			break
		}
		if completed[fix.ID] {
			continue
		}

		outcome := s.executeOne(ctx, projectPath, fix, cfg, mode, opts, report)
		report.Attempts = append(report.Attempts, outcome)
		completed[fix.ID] = true

		sinceCheckpoint++
		if cfg.CheckpointEvery > 0 && sinceCheckpoint >= cfg.CheckpointEvery {
			s.saveCheckpoint(projectPath, checkpointID, completedIDs(kept, i+1), len(kept)-i-1, true)
			sinceCheckpoint = 0
		}
	}

	if !report.Interrupted {
		report.CheckpointID = checkpointID
		s.saveCheckpoint(projectPath, checkpointID, allIDs(kept), 0, false)
	}

	if opts.WithImpact {
		report.Impact = s.analyzeImpact(kept)
	}
	report.Duration = s.clock.Now().Sub(start)
	return report, nil
}

// pendingFixes maps violations to conflict candidates, dropping any
// pattern the registry does not know.
func (s *FixService) pendingFixes(violations []domain.EnsembleViolation) []conflict.PendingFix {
	var pending []conflict.PendingFix
	for _, v := range violations {
		pattern, ok := s.registry.Pattern(v.PatternName)
		if !ok {
			continue
		}
		pending = append(pending, conflict.PendingFix{
			ID:                FixID(v),
			Violation:         v,
			Category:          pattern.Category,
			AffectsImports:    pattern.AffectsImports,
			AffectsSignatures: pattern.AffectsSignatures,
		})
	}
	return pending
}

// executeOne runs a single fix attempt end to end: gate, audit-append,
// pipeline, audit-update. Exactly one audit entry exists per attempt.
func (s *FixService) executeOne(ctx context.Context, projectPath string,
	fix conflict.PendingFix, cfg domain.EngineConfig, mode domain.Mode,
	opts FixOptions, report *FixReport) AttemptOutcome {

	v := fix.Violation
	pattern, _ := s.registry.Pattern(v.PatternName)
	decision := s.classifier.Decide(v.PatternName, v.FilePath, v.MatchedText)

	entry := &domain.AuditEntry{
		AuditID:       uuid.NewString(),
		SessionID:     report.SessionID,
		CreatedAt:     s.clock.Now(),
		UpdatedAt:     s.clock.Now(),
		FilePath:      v.FilePath,
		PatternName:   v.PatternName,
		Line:          v.Line,
		ViolationText: v.MatchedText,
		FixStrategy:   pattern.FixStrategy,
		Status:        domain.StatusProposed,
		UserID:        opts.UserID,
		ContextData: map[string]string{
			"fix_id":     fix.ID,
			"risk_tier":  string(decision.RiskTier),
			"confidence": fmt.Sprintf("%.2f", v.Confidence),
			"mode":       string(mode),
		},
	}
	if err := s.audit.Append(entry); err != nil {
		return AttemptOutcome{FixID: fix.ID, FilePath: v.FilePath, Line: v.Line,
			Pattern: v.PatternName, Status: domain.StatusFailed,
			Reason: fmt.Sprintf("audit append: %v", err)}
	}

	if reason, gated := gate(mode, decision); gated {
		entry.Status = domain.StatusRejected
		entry.Decision = domain.DecisionSystemRejected
		entry.ValidationErrors = []string{reason}
		entry.UpdatedAt = s.clock.Now()
		s.mustUpdate(entry)
		report.Skipped = append(report.Skipped, SkippedFix{
			FixID: fix.ID, FilePath: v.FilePath, Line: v.Line,
			Pattern: v.PatternName, Reason: reason, Decision: domain.DecisionSystemRejected,
		})
		return AttemptOutcome{FixID: fix.ID, AuditID: entry.AuditID, FilePath: v.FilePath,
			Line: v.Line, Pattern: v.PatternName, Status: domain.StatusRejected, Reason: reason}
	}

	req := fixer.Request{
		Violation:   v,
		Transform:   pattern.Transform,
		Write:       mode != domain.ModeSimulate,
		RunTests:    cfg.RunTests,
		StrictTests: mode == domain.ModeConservative || mode == domain.ModeStandard,
		TestCommand: cfg.TestCommand,
		TestTimeout: cfg.TestTimeout(),
		ProjectPath: projectPath,
	}

	if mode == domain.ModeInteractive {
		return s.executeInteractive(ctx, fix, req, entry, report)
	}

	attemptStart := s.clock.Now()
	result, runErr := s.pipeline.Run(ctx, req)
	s.finishEntry(entry, result, attemptStart)

	switch {
	case runErr != nil:
		entry.Status = domain.StatusFailed
		entry.Decision = domain.DecisionSystemRejected
		report.Failed++
	case result.State == fixer.StateApplied:
		entry.Status = domain.StatusApplied
		entry.Decision = domain.DecisionAutoApproved
		entry.RollbackData = result.Attempt.OriginalContent
		report.Applied++
	case result.State == fixer.StatePostValidated:
		entry.Status = domain.StatusValidated
		report.Validated++
	default: // rejected by validation
		entry.Status = domain.StatusFailed
		entry.Decision = domain.DecisionValidationFailed
		report.Failed++
	}
	s.mustUpdate(entry)

	return AttemptOutcome{
		FixID: fix.ID, AuditID: entry.AuditID, FilePath: v.FilePath, Line: v.Line,
		Pattern: v.PatternName, Status: entry.Status,
		Reason: firstReason(result), Diff: diffOf(result),
	}
}

// executeInteractive validates first, shows the diff, then applies only
// on explicit approval.
func (s *FixService) executeInteractive(ctx context.Context, fix conflict.PendingFix,
	req fixer.Request, entry *domain.AuditEntry, report *FixReport) AttemptOutcome {

	v := fix.Violation
	attemptStart := s.clock.Now()

	preview := req
	preview.Write = false
	result, runErr := s.pipeline.Run(ctx, preview)
	s.finishEntry(entry, result, attemptStart)

	if runErr != nil || result.State != fixer.StatePostValidated {
		entry.Status = domain.StatusFailed
		entry.Decision = domain.DecisionValidationFailed
		report.Failed++
		s.mustUpdate(entry)
		return AttemptOutcome{FixID: fix.ID, AuditID: entry.AuditID, FilePath: v.FilePath,
			Line: v.Line, Pattern: v.PatternName, Status: entry.Status, Reason: firstReason(result)}
	}

	approved, err := s.confirmer.Confirm(v, result.Attempt.Validation.DiffText)
	if err != nil || !approved {
		entry.Status = domain.StatusRejected
		entry.Decision = domain.DecisionUserRejected
		s.mustUpdate(entry)
		report.Skipped = append(report.Skipped, SkippedFix{
			FixID: fix.ID, FilePath: v.FilePath, Line: v.Line, Pattern: v.PatternName,
			Reason: "rejected by user", Decision: domain.DecisionUserRejected,
		})
		return AttemptOutcome{FixID: fix.ID, AuditID: entry.AuditID, FilePath: v.FilePath,
			Line: v.Line, Pattern: v.PatternName, Status: entry.Status, Reason: "rejected by user"}
	}

	apply := req
	apply.Write = true
	result, runErr = s.pipeline.Run(ctx, apply)
	s.finishEntry(entry, result, attemptStart)

	if runErr == nil && result.State == fixer.StateApplied {
		entry.Status = domain.StatusApplied
		entry.Decision = domain.DecisionUserApproved
		entry.RollbackData = result.Attempt.OriginalContent
		report.Applied++
	} else {
		entry.Status = domain.StatusFailed
		entry.Decision = domain.DecisionValidationFailed
		report.Failed++
	}
	s.mustUpdate(entry)
	return AttemptOutcome{FixID: fix.ID, AuditID: entry.AuditID, FilePath: v.FilePath,
		Line: v.Line, Pattern: v.PatternName, Status: entry.Status,
		Reason: firstReason(result), Diff: diffOf(result)}
}

// Rollback reverses an applied fix by audit ID, restoring the captured
// original content and verifying the restoration by hash.
func (s *FixService) Rollback(auditID string) error {
	entry, err := s.audit.Entry(auditID)
	if err != nil {
		return fmt.Errorf("loading audit entry %s: %w", auditID, err)
	}
	if entry.Status != domain.StatusApplied {
		return fmt.Errorf("audit entry %s has status %s; only applied fixes can be rolled back",
			auditID, entry.Status)
	}
	if err := fixer.Rollback(entry.FilePath, entry.RollbackData, entry.OriginalHash); err != nil {
		return err
	}
	now := s.clock.Now()
	entry.Status = domain.StatusRolledBack
	entry.RolledBackAt = &now
	entry.UpdatedAt = now
	return s.audit.Update(entry)
}

// gate partitions a candidate per operating mode. Simulate gates nothing:
// it computes everything and writes nothing.
func gate(mode domain.Mode, decision domain.SafetyDecision) (string, bool) {
	switch mode {
	case domain.ModeSimulate, domain.ModeInteractive:
		return "", false
	case domain.ModeConservative:
		if !decision.IsSafe || decision.RiskTier != domain.RiskLow {
			return fmt.Sprintf("conservative mode: %s", decision.Reason), true
		}
	case domain.ModeStandard:
		if !decision.IsSafe ||
			(decision.RiskTier != domain.RiskLow && decision.RiskTier != domain.RiskMedium) {
			return fmt.Sprintf("standard mode: %s", decision.Reason), true
		}
	case domain.ModeAggressive:
		if decision.RiskTier == domain.RiskCritical {
			return fmt.Sprintf("aggressive mode refuses critical risk: %s", decision.Reason), true
		}
	}
	return "", false
}

func (s *FixService) finishEntry(entry *domain.AuditEntry, result *fixer.Result, start time.Time) {
	entry.UpdatedAt = s.clock.Now()
	entry.ExecutionTimeMS = s.clock.Now().Sub(start).Milliseconds()
	if result == nil || result.Attempt == nil || result.Attempt.Validation == nil {
		return
	}
	val := result.Attempt.Validation
	entry.OriginalHash = val.OriginalHash
	entry.ModifiedHash = val.ModifiedHash
	entry.SyntaxValid = val.SyntaxValid
	entry.ImportsValid = val.ImportsValid
	entry.TestStatus = val.TestStatus
	entry.LinesChanged = val.LinesChanged
	entry.FixCode = result.Attempt.ModifiedContent
	entry.ValidationErrors = result.Reasons
}

// mustUpdate funnels audit updates; an audit store failure here loses
// lifecycle detail but must not abort the batch.
func (s *FixService) mustUpdate(entry *domain.AuditEntry) {
	_ = s.audit.Update(entry)
}

func (s *FixService) completedFromCheckpoint(projectPath, resume string) (map[string]bool, error) {
	completed := make(map[string]bool)
	if resume == "" {
		return completed, nil
	}

	var cp *domain.Checkpoint
	var err error
	if resume == "latest" {
		cp, err = s.checkpoints.Latest(projectPath)
	} else {
		cp, err = s.checkpoints.Load(projectPath, resume)
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %q: %w", resume, err)
	}
	if cp == nil {
		return completed, nil
	}
	if !cp.Resumable {
		return nil, fmt.Errorf("checkpoint %s is not resumable (batch completed)", cp.CheckpointID)
	}
	for _, id := range cp.CompletedFixIDs {
		completed[id] = true
	}
	return completed, nil
}

func (s *FixService) saveCheckpoint(projectPath, id string, completed []string, remaining int, resumable bool) {
	_ = s.checkpoints.Save(projectPath, &domain.Checkpoint{
		CheckpointID:    id,
		Timestamp:       s.clock.Now(),
		CompletedFixIDs: completed,
		RemainingCount:  remaining,
		Resumable:       resumable,
	})
}

func (s *FixService) analyzeImpact(kept []conflict.PendingFix) *impact.Report {
	inputs := make([]impact.Input, 0, len(kept))
	trees := make(map[string]*domain.ParseTree)
	for _, fix := range kept {
		tree, cached := trees[fix.Violation.FilePath]
		if !cached && s.parser != nil && s.parser.Supports(fix.Violation.FilePath) {
			if data, err := os.ReadFile(fix.Violation.FilePath); err == nil {
				tree, _ = s.parser.Parse(fix.Violation.FilePath, data)
			}
			trees[fix.Violation.FilePath] = tree
		}
		inputs = append(inputs, impact.Input{
			Violation:         fix.Violation,
			Tree:              tree,
			AffectsImports:    fix.AffectsImports,
			AffectsSignatures: fix.AffectsSignatures,
		})
	}
	return impact.Analyze(inputs)
}

func completedIDs(kept []conflict.PendingFix, upto int) []string {
	ids := make([]string, 0, upto)
	for _, f := range kept[:upto] {
		ids = append(ids, f.ID)
	}
	return ids
}

func allIDs(kept []conflict.PendingFix) []string { return completedIDs(kept, len(kept)) }

func firstReason(result *fixer.Result) string {
	if result == nil || len(result.Reasons) == 0 {
		return ""
	}
	return result.Reasons[0]
}

func diffOf(result *fixer.Result) string {
	if result == nil || result.Attempt == nil || result.Attempt.Validation == nil {
		return ""
	}
	return result.Attempt.Validation.DiffText
}
