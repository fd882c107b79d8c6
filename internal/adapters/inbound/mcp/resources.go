package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	auditstore "github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/application"
)

// registerResources registers all Sentinel MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	// 1. sentinel://stats - per-rule detection statistics
	s.AddResource(
		mcplib.NewResource(
			"sentinel://stats",
			"Rule Statistics",
			mcplib.WithResourceDescription("Accuracy and timing statistics for every detection rule"),
			mcplib.WithMIMEType("application/json"),
		),
		handleStatsResource(projectPath),
	)

	// 2. sentinel://patterns - all-time pattern history
	s.AddResource(
		mcplib.NewResource(
			"sentinel://patterns",
			"Pattern History",
			mcplib.WithResourceDescription("All-time per-pattern fix success rates with recommendations"),
			mcplib.WithMIMEType("application/json"),
		),
		handlePatternsResource(projectPath),
	)
}

func handleStatsResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		store, err := auditstore.Open(projectPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		defer store.Close()

		stats, err := application.NewHistoryService(store).RuleStats()
		if err != nil {
			return nil, fmt.Errorf("loading rule statistics: %w", err)
		}
		return jsonContents(request.Params.URI, stats)
	}
}

func handlePatternsResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		store, err := auditstore.Open(projectPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		defer store.Close()

		report, err := application.NewHistoryService(store).LearnFromHistory()
		if err != nil {
			return nil, fmt.Errorf("loading pattern history: %w", err)
		}
		return jsonContents(request.Params.URI, report)
	}
}

func jsonContents(uri string, v interface{}) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
