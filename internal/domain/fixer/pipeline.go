package fixer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

// State is the position of an attempt in the fix pipeline.
type State string

const (
	StateScanned       State = "SCANNED"
	StatePreValidated  State = "PRE_VALIDATED"
	StateTransformed   State = "TRANSFORMED"
	StatePostValidated State = "POST_VALIDATED"
	StateApplied       State = "APPLIED"
	StateRejected      State = "REJECTED"
	StateRolledBack    State = "ROLLED_BACK"
)

// Request describes one candidate fix for the pipeline.
type Request struct {
	Violation   domain.EnsembleViolation
	Transform   rules.Transform
	Write       bool // false simulates: validate everything, never touch disk
	RunTests    bool
	StrictTests bool // a non-PASSED test run blocks application
	TestCommand []string
	TestTimeout time.Duration
	ProjectPath string
}

// Result is the structured outcome of one pipeline run.
type Result struct {
	Attempt *domain.FixAttempt
	State   State
	Reasons []string
}

// Pipeline applies one candidate transformation and validates it through
// ordered checks. On rejection the on-disk file is byte-identical to
// before the attempt; the transform runs in memory, and the candidate
// only touches disk while the external tests exercise it.
type Pipeline struct {
	parser domain.StructuralParser
	runner domain.TestRunner
	clock  domain.Clock
}

// NewPipeline builds a validation pipeline. runner may be nil when no
// external test runner is available.
func NewPipeline(parser domain.StructuralParser, runner domain.TestRunner, clock domain.Clock) *Pipeline {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Pipeline{parser: parser, runner: runner, clock: clock}
}

// Run executes the state machine
// SCANNED -> PRE_VALIDATED -> TRANSFORMED -> POST_VALIDATED -> APPLIED|REJECTED.
// IO problems return a wrapped domain.ErrIOFailure; validation rejections
// are ordinary results, not errors.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	attempt := &domain.FixAttempt{
		FilePath:   req.Violation.FilePath,
		Pattern:    req.Violation.PatternName,
		Line:       req.Violation.Line,
		Timestamp:  p.clock.Now(),
		Validation: &domain.FixValidation{},
	}
	result := &Result{Attempt: attempt, State: StateScanned}

	// Pre-validation: target exists, is readable, and already parses.
	// A file that is broken before we touch it is not ours to "fix".
	data, err := os.ReadFile(req.Violation.FilePath)
	if err != nil {
		attempt.Validation.Error = err.Error()
		result.State = StateRejected
		result.Reasons = append(result.Reasons, err.Error())
		return result, fmt.Errorf("%w: reading %s: %v", domain.ErrIOFailure, req.Violation.FilePath, err)
	}
	attempt.OriginalContent = string(data)
	attempt.Validation.OriginalHash = Hash(attempt.OriginalContent)

	if p.parser != nil && p.parser.Supports(req.Violation.FilePath) {
		if _, err := p.parser.Parse(req.Violation.FilePath, data); err != nil {
			reason := fmt.Sprintf("original content does not parse: %v", err)
			return p.reject(result, reason), nil
		}
	}
	result.State = StatePreValidated

	// Transform, in memory only.
	if req.Transform == nil {
		return p.reject(result, "no automated fix strategy for pattern "+req.Violation.PatternName), nil
	}
	modified, err := req.Transform(attempt.OriginalContent, req.Violation)
	if err != nil {
		return p.reject(result, fmt.Sprintf("transform failed: %v", err)), nil
	}
	attempt.ModifiedContent = modified
	attempt.Validation.ModifiedHash = Hash(modified)
	result.State = StateTransformed

	// The diff is attached whatever happens next.
	diffText, linesChanged, err := UnifiedDiff(req.Violation.FilePath, attempt.OriginalContent, modified)
	if err == nil {
		attempt.Validation.DiffText = diffText
		attempt.Validation.LinesChanged = linesChanged
	}

	if modified == attempt.OriginalContent {
		return p.reject(result, "transform produced no change"), nil
	}

	// Post-validation: ordered, short-circuiting.
	syntax := SyntaxValidator(p.parser)
	if ok, reason := syntax.Check(attempt.OriginalContent, modified, req.Violation.FilePath); !ok {
		return p.reject(result, reason), nil
	}
	attempt.Validation.SyntaxValid = true

	imports := ImportValidator()
	if ok, reason := imports.Check(attempt.OriginalContent, modified, req.Violation.FilePath); !ok {
		return p.reject(result, reason), nil
	}
	attempt.Validation.ImportsValid = true

	if req.RunTests && p.runner != nil {
		// The run must exercise the candidate fix, so the modified
		// content is staged to the target for its duration. The original
		// bytes come back before any verdict; the apply step below is
		// the only writer that leaves modified content behind.
		status, err := p.testModified(ctx, req, []byte(modified), data)
		attempt.Validation.TestStatus = status
		if err != nil {
			attempt.Validation.Error = err.Error()
			result.State = StateRejected
			result.Reasons = append(result.Reasons, err.Error())
			return result, err
		}
		if req.StrictTests && status != domain.TestPassed {
			return p.reject(result, fmt.Sprintf("test run %s blocks application in strict mode", status)), nil
		}
	}
	result.State = StatePostValidated

	if !req.Write {
		return result, nil
	}

	if err := os.WriteFile(req.Violation.FilePath, []byte(modified), 0644); err != nil {
		attempt.Validation.Error = err.Error()
		result.State = StateRejected
		result.Reasons = append(result.Reasons, err.Error())
		return result, fmt.Errorf("%w: writing %s: %v", domain.ErrIOFailure, req.Violation.FilePath, err)
	}
	attempt.Applied = true
	result.State = StateApplied
	return result, nil
}

// testModified writes the candidate content to the target, runs the
// external tests against it, and restores the original bytes. A failure
// to stage or restore is an IO failure for the whole attempt.
func (p *Pipeline) testModified(ctx context.Context, req Request, modified, original []byte) (domain.TestStatus, error) {
	path := req.Violation.FilePath
	if err := os.WriteFile(path, modified, 0644); err != nil {
		return domain.TestNotRun, fmt.Errorf("%w: staging %s for test run: %v", domain.ErrIOFailure, path, err)
	}
	status := p.runTests(ctx, req)
	if err := os.WriteFile(path, original, 0644); err != nil {
		return status, fmt.Errorf("%w: restoring %s after test run: %v", domain.ErrIOFailure, path, err)
	}
	return status, nil
}

// runTests executes the external test command bounded by the configured
// timeout. A timeout is inconclusive, never successful.
func (p *Pipeline) runTests(ctx context.Context, req Request) domain.TestStatus {
	timeout := req.TestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, _, err := p.runner.Run(runCtx, req.ProjectPath, req.TestCommand)
	if err != nil && status == domain.TestNotRun {
		return domain.TestFailed
	}
	return status
}

func (p *Pipeline) reject(result *Result, reason string) *Result {
	result.State = StateRejected
	result.Reasons = append(result.Reasons, reason)
	if result.Attempt.Validation.Error == "" {
		result.Attempt.Validation.Error = reason
	}
	return result
}

// Rollback writes the captured original content back verbatim and
// verifies the restoration by hash equality.
func Rollback(filePath, rollbackData, originalHash string) error {
	if rollbackData == "" {
		return fmt.Errorf("no rollback data for %s", filePath)
	}
	if err := os.WriteFile(filePath, []byte(rollbackData), 0644); err != nil {
		return fmt.Errorf("%w: restoring %s: %v", domain.ErrIOFailure, filePath, err)
	}
	restored, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("%w: verifying %s: %v", domain.ErrIOFailure, filePath, err)
	}
	if got := Hash(string(restored)); got != originalHash {
		return fmt.Errorf("rollback verification failed for %s: hash %s != %s", filePath, got, originalHash)
	}
	return nil
}
