package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	auditstore "github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/checkpoint"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/config"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/gitinfo"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/parser"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/policy"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/scanner"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/testrunner"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/fixer"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

// registerTools registers all Sentinel MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. sentinel_scan
	s.AddTool(
		mcplib.NewTool("sentinel_scan",
			mcplib.WithDescription("Scan the project for code-quality violations and return them as JSON. No files are modified."),
		),
		handleScan(projectPath),
	)

	// 2. sentinel_fix
	s.AddTool(
		mcplib.NewTool("sentinel_fix",
			mcplib.WithDescription("Run a fix batch and return the attempt-by-attempt report. Defaults to simulate mode, which validates fixes without writing any file."),
			mcplib.WithString("mode",
				mcplib.Description("Execution mode: simulate, conservative, standard or aggressive (default: simulate)"),
			),
		),
		handleFix(projectPath),
	)

	// 3. sentinel_audit_summary
	s.AddTool(
		mcplib.NewTool("sentinel_audit_summary",
			mcplib.WithDescription("Summarize one fix session from the audit trail: status counts, success rate and files modified"),
			mcplib.WithString("session_id",
				mcplib.Required(),
				mcplib.Description("Session ID returned by a previous fix batch"),
			),
		),
		handleAuditSummary(projectPath),
	)

	// 4. sentinel_rule_stats
	s.AddTool(
		mcplib.NewTool("sentinel_rule_stats",
			mcplib.WithDescription("Return accuracy and timing statistics for every detection rule, accumulated across scans"),
		),
		handleRuleStats(projectPath),
	)

	// 5. sentinel_file_history
	s.AddTool(
		mcplib.NewTool("sentinel_file_history",
			mcplib.WithDescription("Return every fix ever attempted on a file, newest first"),
			mcplib.WithString("file",
				mcplib.Required(),
				mcplib.Description("Path of the file as recorded in the audit trail"),
			),
		),
		handleFileHistory(projectPath),
	)
}

func handleScan(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		store, err := auditstore.Open(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("opening audit store: %v", err)), nil
		}
		defer store.Close()

		svc := application.NewScanService(scanner.New(), parser.New(),
			config.New(), store, rules.Builtin())
		report, _, err := svc.Scan(ctx, projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("scan failed: %v", err)), nil
		}
		return jsonResult(report)
	}
}

func handleFix(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		mode := request.GetString("mode", string(domain.ModeSimulate))
		if domain.Mode(mode) == domain.ModeInteractive {
			return errorResult("interactive mode is not available over MCP"), nil
		}
		if !domain.Mode(mode).Valid() {
			return errorResult(fmt.Sprintf("unknown mode %q", mode)), nil
		}

		store, err := auditstore.Open(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("opening audit store: %v", err)), nil
		}
		defer store.Close()

		tables, err := policy.New().Load(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading safety policy: %v", err)), nil
		}
		classifier, err := safety.NewClassifier(tables)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		par := parser.New()
		registry := rules.Builtin()

		scanSvc := application.NewScanService(scanner.New(), par,
			config.New(), store, registry)
		report, cfg, err := scanSvc.Scan(ctx, projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("scan failed: %v", err)), nil
		}

		pipeline := fixer.NewPipeline(par, testrunner.New(), domain.SystemClock{})
		fixSvc := application.NewFixService(classifier, registry, pipeline,
			par, store, checkpoint.New(), nil, gitinfo.New())

		fixReport, err := fixSvc.Execute(ctx, projectPath, report.Violations, cfg,
			application.FixOptions{Mode: domain.Mode(mode)})
		if err != nil {
			return errorResult(fmt.Sprintf("fix failed: %v", err)), nil
		}
		return jsonResult(fixReport)
	}
}

func handleAuditSummary(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		store, err := auditstore.Open(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("opening audit store: %v", err)), nil
		}
		defer store.Close()

		summary, err := application.NewHistoryService(store).SessionSummary(sessionID)
		if err != nil {
			return errorResult(fmt.Sprintf("loading session: %v", err)), nil
		}
		return jsonResult(summary)
	}
}

func handleRuleStats(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		store, err := auditstore.Open(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("opening audit store: %v", err)), nil
		}
		defer store.Close()

		stats, err := application.NewHistoryService(store).RuleStats()
		if err != nil {
			return errorResult(fmt.Sprintf("loading rule statistics: %v", err)), nil
		}
		return jsonResult(stats)
	}
}

func handleFileHistory(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		file, err := request.RequireString("file")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		store, err := auditstore.Open(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("opening audit store: %v", err)), nil
		}
		defer store.Close()

		entries, err := application.NewHistoryService(store).FileHistory(file)
		if err != nil {
			return errorResult(fmt.Sprintf("loading file history: %v", err)), nil
		}
		return jsonResult(entries)
	}
}

// jsonResult marshals v and wraps it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
