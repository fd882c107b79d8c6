package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with all Sentinel tools and resources
// registered. The projectPath is the root directory of the project to
// analyze.
func NewServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"sentinel",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
