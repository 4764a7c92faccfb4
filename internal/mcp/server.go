package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/structa/fieldwise/internal/config"
	"github.com/structa/fieldwise/internal/descriptions"
	"github.com/structa/fieldwise/internal/exchange"
	"github.com/structa/fieldwise/internal/extract"
	"github.com/structa/fieldwise/internal/match"
	"github.com/structa/fieldwise/internal/service"
	"github.com/structa/fieldwise/internal/store"
	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	svc       *service.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		svc:       svc,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	templateMatchTool := mcp.NewTool(
		"template_match",
		mcp.WithDescription(descriptions.TemplateMatchDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of matches to return (default 5)"),
		),
	)
	s.mcpServer.AddTool(templateMatchTool, s.handleTemplateMatch)

	fieldExtractTool := mcp.NewTool(
		"field_extract",
		mcp.WithDescription(descriptions.FieldExtractDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document"),
		),
		mcp.WithString("template_id",
			mcp.Description("Template id to apply (best match is used if empty)"),
		),
	)
	s.mcpServer.AddTool(fieldExtractTool, s.handleFieldExtract)

	templateListTool := mcp.NewTool(
		"template_list",
		mcp.WithDescription(descriptions.TemplateListDescription),
		mcp.WithString("category",
			mcp.Description("Only templates in this category"),
		),
		mcp.WithString("tag",
			mcp.Description("Only templates carrying this tag"),
		),
		mcp.WithString("format",
			mcp.Description("Only templates supporting this document format"),
		),
	)
	s.mcpServer.AddTool(templateListTool, s.handleTemplateList)

	templateDiffTool := mcp.NewTool(
		"template_diff",
		mcp.WithDescription(descriptions.TemplateDiffDescription),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("Template id"),
		),
		mcp.WithString("label_a",
			mcp.Required(),
			mcp.Description("Older version label"),
		),
		mcp.WithString("label_b",
			mcp.Required(),
			mcp.Description("Newer version label"),
		),
	)
	s.mcpServer.AddTool(templateDiffTool, s.handleTemplateDiff)

	templateExportTool := mcp.NewTool(
		"template_export",
		mcp.WithDescription(descriptions.TemplateExportDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Destination file path"),
		),
		mcp.WithString("ids",
			mcp.Description("Comma separated template ids (all templates if empty)"),
		),
		mcp.WithString("compress",
			mcp.Description("Set to 'true' to gzip the output"),
		),
	)
	s.mcpServer.AddTool(templateExportTool, s.handleTemplateExport)

	templateImportTool := mcp.NewTool(
		"template_import",
		mcp.WithDescription(descriptions.TemplateImportDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source file path"),
		),
		mcp.WithString("overwrite",
			mcp.Description("Set to 'true' to overwrite stored templates sharing an id"),
		),
		mcp.WithString("rename",
			mcp.Description("Set to 'true' to rename imported templates on name conflicts"),
		),
	)
	s.mcpServer.AddTool(templateImportTool, s.handleTemplateImport)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleTemplateMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := 5
	if raw, ok := request.GetArguments()["limit"].(string); ok && raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 1 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid limit: %s", raw)), nil
		}
	}

	matches, err := s.svc.MatchDocument(path, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatMatches(path, matches)), nil
}

func (s *Server) handleFieldExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	templateID := ""
	if id, ok := request.GetArguments()["template_id"].(string); ok {
		templateID = id
	}

	result, err := s.svc.ExtractFields(path, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtraction(path, result)), nil
}

func (s *Server) handleTemplateList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filter := store.Filter{}
	if v, ok := args["category"].(string); ok {
		filter.Category = v
	}
	if v, ok := args["tag"].(string); ok {
		filter.Tag = v
	}
	if v, ok := args["format"].(string); ok {
		filter.Format = v
	}

	templates, err := s.svc.ListTemplates(filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatTemplateList(templates)), nil
}

func (s *Server) handleTemplateDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	labelA, err := request.RequireString("label_a")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	labelB, err := request.RequireString("label_b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	comparison, err := s.svc.CompareVersions(templateID, labelA, labelB)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatComparison(templateID, labelA, labelB, comparison)), nil
}

func (s *Server) handleTemplateExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	var ids []string
	if raw, ok := args["ids"].(string); ok && raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	opts := exchange.ExportOptions{
		IncludeHistory: true,
		IncludeStats:   true,
		Compress:       args["compress"] == "true",
	}

	f, err := os.Create(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer f.Close()

	if err := s.svc.ExportTemplates(f, ids, opts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scope := "all templates"
	if len(ids) > 0 {
		scope = fmt.Sprintf("%d template(s)", len(ids))
	}
	return mcp.NewToolResultText(fmt.Sprintf("Exported %s to %s", scope, path)), nil
}

func (s *Server) handleTemplateImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	opts := exchange.ImportOptions{
		OverwriteExisting: args["overwrite"] == "true",
		RenameOnConflict:  args["rename"] == "true",
	}

	f, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer f.Close()

	result, err := s.svc.ImportTemplates(f, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Imported %d template(s), skipped %d\n", result.Imported, result.Skipped)
	for _, w := range result.Warnings {
		text += fmt.Sprintf("Warning: %s\n", w)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.svc.ListTemplates(store.Filter{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfo(templates)), nil
}

// Formatting methods
func (s *Server) formatMatches(path string, matches []match.Match) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No template matched %s above confidence %.2f", path, s.config.MinMatchConfidence)
	}

	text := fmt.Sprintf("Found %d matching template(s) for %s\n\n", len(matches), path)
	for i, m := range matches {
		text += fmt.Sprintf("%d. %s (%.1f%%)\n", i+1, m.Template.Name, m.Score*100)
		text += fmt.Sprintf("   ID: %s\n", m.Template.ID)
		text += fmt.Sprintf("   Keyword: %.2f  Format: %.2f  Structure: %.2f  Content: %.2f\n",
			m.Breakdown.Keyword, m.Breakdown.Format, m.Breakdown.Structure, m.Breakdown.Content)
		for _, reason := range m.Breakdown.Reasons {
			text += fmt.Sprintf("   - %s: %s\n", reason.Category, reason.Evidence)
		}
		if i < len(matches)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatExtraction(path string, result *extract.Result) string {
	text := fmt.Sprintf("Extraction from %s\n", path)
	text += fmt.Sprintf("Template: %s (%s)\n", result.TemplateName, result.TemplateID)
	text += fmt.Sprintf("Overall confidence: %.1f%%\n", result.OverallConfidence*100)
	text += fmt.Sprintf("Elapsed: %s\n", result.Elapsed)

	text += "\nFields:\n"
	for _, f := range result.Fields {
		switch {
		case f.Missing:
			text += fmt.Sprintf("  %s: <missing>\n", f.Name)
		default:
			text += fmt.Sprintf("  %s: %s (%.1f%%, %s", f.Name, f.Value, f.Confidence*100, f.Method)
			if f.UsedFallback {
				text += ", fallback"
			}
			if f.UsedDefault {
				text += ", default"
			}
			text += ")\n"
		}
	}

	if len(result.Warnings) > 0 {
		text += "\nWarnings:\n"
		for _, w := range result.Warnings {
			text += fmt.Sprintf("  - %s\n", w)
		}
	}
	if len(result.Errors) > 0 {
		text += "\nErrors:\n"
		for _, e := range result.Errors {
			text += fmt.Sprintf("  - %s\n", e)
		}
	}
	return text
}

func (s *Server) formatTemplateList(templates []*template.Template) string {
	if len(templates) == 0 {
		return "No templates stored"
	}

	text := fmt.Sprintf("Found %d template(s)\n\n", len(templates))
	for i, tpl := range templates {
		text += fmt.Sprintf("%d. %s\n", i+1, tpl.Name)
		text += fmt.Sprintf("   ID: %s\n", tpl.ID)
		if tpl.Category != "" {
			text += fmt.Sprintf("   Category: %s\n", tpl.Category)
		}
		text += fmt.Sprintf("   Fields: %d\n", len(tpl.Fields))
		text += fmt.Sprintf("   Formats: %s\n", strings.Join(tpl.SupportedFormats, ", "))
		text += fmt.Sprintf("   Active: %t\n", tpl.IsActive)
		if tpl.ParentID != "" {
			text += fmt.Sprintf("   Parent: %s\n", tpl.ParentID)
		}
		if i < len(templates)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatComparison(templateID, labelA, labelB string, c *version.Comparison) string {
	text := fmt.Sprintf("Comparing %s: %s -> %s\n", templateID, labelA, labelB)
	if c.AreIdentical {
		text += "Versions are identical\n"
		return text
	}

	for _, name := range c.Added {
		text += fmt.Sprintf("+ %s (added)\n", name)
	}
	for _, name := range c.Removed {
		text += fmt.Sprintf("- %s (removed)\n", name)
	}
	for _, change := range c.Modified {
		text += fmt.Sprintf("~ %s: %s\n", change.Name, strings.Join(change.Changes, "; "))
	}
	return text
}

func (s *Server) formatServerInfo(templates []*template.Template) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Template directory: %s\n", s.config.TemplateDirectory)
	if s.config.StorePath != "" {
		text += fmt.Sprintf("Store: %s\n", s.config.StorePath)
	} else {
		text += "Store: in-memory\n"
	}
	text += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Supported extensions: %s\n\n", strings.Join(s.svc.SupportedExtensions(), ", "))

	if len(templates) > 0 {
		text += fmt.Sprintf("Catalog (%d templates):\n", len(templates))
		for i, tpl := range templates {
			if i >= 10 { // Limit to first 10 for readability
				text += fmt.Sprintf("   ... and %d more\n", len(templates)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d fields)\n", i+1, tpl.Name, len(tpl.Fields))
		}
		text += "\n"
	} else {
		text += "Catalog: no templates stored\n\n"
	}

	text += "Available Tools:\n"
	text += "  template_match    Rank templates against a document with score explanations\n"
	text += "  field_extract     Extract field values using a template (or the best match)\n"
	text += "  template_list     List stored templates with filters\n"
	text += "  template_diff     Field-level diff between two template versions\n"
	text += "  template_export   Export templates to a JSON document\n"
	text += "  template_import   Import templates from an export document\n"
	text += "  server_info       This information\n"

	text += "\nStart with template_list to see the catalog, then template_match to find the right template for a document."
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting fieldwise MCP server in stdio mode")
		log.Printf("Template directory: %s", s.config.TemplateDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)
	log.Printf("Starting fieldwise MCP server on %s", s.config.Address())

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(s.config.Address())
	}()

	select {
	case <-ctx.Done():
		return sse.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	}
}
