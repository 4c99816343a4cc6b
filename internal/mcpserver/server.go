// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only installation state over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/claudekit/internal/installer"
	"github.com/starford/claudekit/internal/logging"
)

const agentFormatURI = "claudekit://agent-format"

// Server wraps the MCP server with claudekit tools.
type Server struct {
	mcp *server.MCPServer
	in  *installer.Installer
	log *logging.Logger
}

// New creates a new MCP server with all tools registered. log may be nil.
func New(in *installer.Installer, version string, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{in: in, log: log.With("mcp")}

	s.mcp = server.NewMCPServer(
		"claudekit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List every known component with its declared and installed version."),
	), s.listComponents)

	s.mcp.AddTool(mcp.NewTool("validate_component",
		mcp.WithDescription("Check that a component is correctly installed. Returns ok and a list of problems."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Component name (e.g. agents)")),
	), s.validateComponent)

	s.mcp.AddTool(mcp.NewTool("installed_items",
		mcp.WithDescription("List the artifacts of a component currently present in the install directory."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Component name")),
	), s.installedItems)

	s.mcp.AddTool(mcp.NewTool("installation_summary",
		mcp.WithDescription("Describe what installing a component would place on disk."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Component name")),
	), s.installationSummary)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Recent install, update and uninstall runs, newest first."),
		mcp.WithString("component", mcp.Description("Optional component to filter by")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.history)

	s.mcp.AddTool(mcp.NewTool("get_agent_contract",
		mcp.WithDescription("Returns the agent file format. Read it before writing agent definitions."),
	), s.getAgentContract)

	s.mcp.AddResource(
		mcp.NewResource(agentFormatURI, "Agent File Format",
			mcp.WithResourceDescription("Frontmatter format that agent definitions must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAgentFormatResource,
	)

	return s
}

// Serve runs the MCP server over the given stdio streams until ctx is
// cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Slog().Handler(), slog.LevelError))
	s.log.Info("serving MCP over stdio")
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.in.Status())
}

func (s *Server) validateComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reports, err := s.in.Validate(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(reports[0])
}

func (s *Server) installedItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.in.Component(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := c.InstalledItems()
	if len(items) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no installed items for %s", name)), nil
	}
	return jsonResult(items)
}

func (s *Server) installationSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.in.Component(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c.InstallationSummary())
}

func (s *Server) history(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component := req.GetString("component", "")
	limit := req.GetInt("limit", 50)
	entries, err := s.in.History(component, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no history recorded"), nil
	}
	return jsonResult(entries)
}

func (s *Server) getAgentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AgentFormatContract), nil
}

func (s *Server) readAgentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      agentFormatURI,
			MIMEType: "text/markdown",
			Text:     AgentFormatContract,
		},
	}, nil
}
