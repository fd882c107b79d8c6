package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/ensemble"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

// ScanService runs the ensemble rule engine over a project. Files are
// scanned in parallel; each file's evaluation is self-contained and its
// statistics deltas are merged after the pool drains.
type ScanService struct {
	scanner  domain.ProjectScanner
	parser   domain.StructuralParser
	cfgLoad  domain.ConfigLoader
	audit    domain.AuditStore // optional; rule stats are persisted when present
	registry *rules.Registry
	clock    domain.Clock
}

// NewScanService wires the scan pipeline. audit may be nil.
func NewScanService(scanner domain.ProjectScanner, parser domain.StructuralParser,
	cfgLoad domain.ConfigLoader, audit domain.AuditStore, registry *rules.Registry) *ScanService {
	return &ScanService{
		scanner:  scanner,
		parser:   parser,
		cfgLoad:  cfgLoad,
		audit:    audit,
		registry: registry,
		clock:    domain.SystemClock{},
	}
}

// ScanReport is the aggregate result of one scan pass.
type ScanReport struct {
	ProjectPath   string                     `json:"project_path"`
	Violations    []domain.EnsembleViolation `json:"violations"`
	FilesScanned  int                        `json:"files_scanned"`
	ParseFailures []string                   `json:"parse_failures,omitempty"`
	RuleErrors    []string                   `json:"rule_errors,omitempty"`
	Duration      time.Duration              `json:"duration_ns"`
}

// fileOutcome keeps one worker's results; slots are pre-allocated per
// file so workers never share mutable state.
type fileOutcome struct {
	result       ensemble.FileResult
	parseFailure string
}

// Scan walks the project, evaluates every registered pattern against
// every source file, and returns calibrated violations. Parse failures
// degrade the affected file to text-only rules and never block others.
func (s *ScanService) Scan(ctx context.Context, projectPath string) (*ScanReport, domain.EngineConfig, error) {
	cfg, err := s.cfgLoad.Load(projectPath)
	if err != nil {
		return nil, cfg, fmt.Errorf("loading config: %w", err)
	}

	scan, err := s.scanner.Scan(projectPath, cfg.ExcludePaths...)
	if err != nil {
		return nil, cfg, fmt.Errorf("scanning %s: %w", projectPath, err)
	}

	start := s.clock.Now()
	voter := ensemble.NewVoter(cfg)
	outcomes := make([]fileOutcome, len(scan.SourceFiles))

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	g.SetLimit(workers)

	for i, relPath := range scan.SourceFiles {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			absPath := filepath.Join(scan.RootPath, relPath)
			data, err := os.ReadFile(absPath)
			if err != nil {
				outcomes[i].parseFailure = fmt.Sprintf("%s: %v", relPath, err)
				return nil // unreadable file is file-local, never fatal
			}

			var tree *domain.ParseTree
			if s.parser != nil && s.parser.Supports(absPath) {
				tree, err = s.parser.Parse(absPath, data)
				if err != nil {
					// Degrade to text-only rules for this file.
					outcomes[i].parseFailure = fmt.Sprintf("%s: %v", relPath, err)
					tree = nil
				}
			}

			rctx := rules.NewContext(absPath, string(data), tree,
				safety.IsTestFile(absPath), isConfigFile(absPath))
			outcomes[i].result = voter.EvaluateFile(s.registry, rctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cfg, err
	}

	report := &ScanReport{
		ProjectPath:  scan.RootPath,
		FilesScanned: len(scan.SourceFiles),
	}
	var deltas []ensemble.StatDelta
	for _, o := range outcomes {
		report.Violations = append(report.Violations, o.result.Violations...)
		deltas = append(deltas, o.result.Stats...)
		for _, err := range o.result.RuleErrors {
			report.RuleErrors = append(report.RuleErrors, err.Error())
		}
		if o.parseFailure != "" {
			report.ParseFailures = append(report.ParseFailures, o.parseFailure)
		}
	}

	sort.Slice(report.Violations, func(i, j int) bool {
		a, b := report.Violations[i], report.Violations[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.PatternName < b.PatternName
	})
	report.Duration = s.clock.Now().Sub(start)

	if s.audit != nil {
		if err := s.persistRuleStats(deltas); err != nil {
			// Stats feed offline analysis only; a persistence failure
			// must not fail the scan.
			report.RuleErrors = append(report.RuleErrors, fmt.Sprintf("persisting rule stats: %v", err))
		}
	}

	return report, cfg, nil
}

func (s *ScanService) persistRuleStats(deltas []ensemble.StatDelta) error {
	existing, err := s.audit.RuleStats()
	if err != nil {
		return err
	}
	updated := ensemble.ApplyDeltas(existing, ensemble.MergeDeltas(deltas), s.clock.Now())
	return s.audit.UpsertRuleStats(updated)
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json", ".toml", ".ini":
		return true
	}
	return false
}
