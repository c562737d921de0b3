// Package mcp exposes the ingestion pipeline as Model Context Protocol
// tools over stdio, using the mcp-go library for protocol handling
// (JSON-RPC 2.0 on stdin/stdout).
//
// Each tool call runs the full Reader → Normalizer → Builder chain to
// completion before returning. Tool failures become structured error
// payloads; nothing here terminates the process.
package mcp

import (
	"notedrop/internal/config"
	"notedrop/internal/content"
	"notedrop/internal/errs"
	"notedrop/internal/logging"
	"notedrop/internal/notion"
	"notedrop/internal/reader"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "notedrop"
	serverVersion = "0.1.0"
)

// Server wires the pipeline components behind the MCP tool surface.
type Server struct {
	config     config.Config
	logger     *logging.AppLogger
	reader     *reader.Reader
	normalizer *content.Normalizer
	// notion is nil when no token is configured; Notion-dependent tools
	// then fail per call with a configuration error.
	notion *notion.Client
}

// NewServer creates a server from a loaded configuration. The reader is
// constructed eagerly so a bad allow-list fails at startup, not on the
// first tool call.
func NewServer(cfg config.Config, logger *logging.AppLogger) (*Server, error) {
	r, err := reader.NewReader(cfg.AllowedDirs, cfg.MaxFileSize, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:     cfg,
		logger:     logger,
		reader:     r,
		normalizer: content.NewNormalizer(0, 0),
	}

	if cfg.NotionToken != "" {
		client, err := notion.NewClient(cfg.NotionToken, logger)
		if err != nil {
			return nil, err
		}
		s.notion = client
	} else {
		logger.Warn("No Notion token configured; page-creation tools will report errors")
	}

	return s, nil
}

// Serve registers the tools and serves MCP over stdio until the client
// disconnects.
func (s *Server) Serve() error {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)
	s.registerTools(mcpServer)

	s.logger.Info("Starting MCP server on stdio",
		"allowedDirs", s.config.AllowedDirs,
		"notionConfigured", s.notion != nil,
	)
	return server.ServeStdio(mcpServer)
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool(
			"read_text_file",
			mcp.WithDescription("Read content from a text file (.txt, .md, .py, etc.)."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the text file to read")),
		),
		s.handleReadTextFile,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"read_json_file",
			mcp.WithDescription("Read and parse content from a JSON file."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the JSON file to read")),
		),
		s.handleReadJSONFile,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"read_csv_file",
			mcp.WithDescription("Read and parse content from a CSV file."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the CSV file to read")),
			mcp.WithString("delimiter", mcp.Description("Field delimiter (default \",\")")),
			mcp.WithNumber("max_rows", mcp.Description("Maximum number of data rows to return")),
		),
		s.handleReadCSVFile,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"list_files_in_directory",
			mcp.WithDescription("List files in a directory, optionally filtered by file extensions."),
			mcp.WithString("directory_path", mcp.Required(), mcp.Description("Path to the directory to list")),
			mcp.WithArray("file_extensions", mcp.Description("File extensions to include, e.g. [\".txt\", \".json\"]")),
		),
		s.handleListFiles,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"create_notion_page",
			mcp.WithDescription("Create a new page in a Notion database."),
			mcp.WithString("database_id", mcp.Description("Target database ID (falls back to the configured default)")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title for the new page")),
			mcp.WithString("content", mcp.Description("Content to add to the page body")),
			mcp.WithObject("properties", mcp.Description("Additional page properties, in Notion property shape")),
		),
		s.handleCreateNotionPage,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"create_notion_page_from_file",
			mcp.WithDescription("Read a file and create a Notion page with its content. Markdown frontmatter supplies the title and extra properties."),
			mcp.WithString("database_id", mcp.Description("Target database ID (falls back to the configured default)")),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the file to read")),
			mcp.WithString("page_title", mcp.Description("Custom title for the page (defaults to the file name)")),
		),
		s.handleCreatePageFromFile,
	)

	mcpServer.AddTool(
		mcp.NewTool(
			"list_notion_databases",
			mcp.WithDescription("List Notion databases shared with the integration."),
		),
		s.handleListDatabases,
	)
}

// databaseID applies the configured default when a call omits the target.
func (s *Server) databaseID(fromArgs string) (string, error) {
	if fromArgs != "" {
		return fromArgs, nil
	}
	if s.config.DefaultDatabaseID != "" {
		return s.config.DefaultDatabaseID, nil
	}
	return "", errs.New(errs.KindValidation,
		"database_id is required (no default database configured)")
}

// requireNotion fails when the server started without a Notion token.
func (s *Server) requireNotion() (*notion.Client, error) {
	if s.notion == nil {
		return nil, errs.New(errs.KindValidation,
			"Notion API key not configured; set %s or store a token in the OS keyring", config.EnvNotionToken)
	}
	return s.notion, nil
}
