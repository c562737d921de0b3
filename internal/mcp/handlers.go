package mcp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"notedrop/internal/content"
	"notedrop/internal/errs"
	"notedrop/internal/notion"

	"github.com/adrg/frontmatter"
	"github.com/mark3labs/mcp-go/mcp"
)

// Argument extraction. Missing or mistyped arguments are validation
// errors returned to the MCP client, never protocol errors.

func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok {
		return "", errs.New(errs.KindValidation, "missing required argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindValidation, "argument %q must be a string", name)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindValidation, "argument %q must be a string", name)
	}
	return s, nil
}

func optionalIntArg(args map[string]any, name string, fallback int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	// JSON numbers decode as float64.
	f, ok := raw.(float64)
	if !ok {
		return 0, errs.New(errs.KindValidation, "argument %q must be a number", name)
	}
	return int(f), nil
}

func stringSliceArg(args map[string]any, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errs.New(errs.KindValidation, "argument %q must be an array of strings", name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errs.New(errs.KindValidation, "argument %q must be an array of strings", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func delimiterArg(args map[string]any, name string) (rune, error) {
	s, err := optionalStringArg(args, name)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errs.New(errs.KindValidation, "argument %q must be a single character", name)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func (s *Server) handleReadTextFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := stringArg(args, "file_path")
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	parsed, err := s.reader.ReadText(path)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	return jsonResult(s.logger, FileContent{
		Filename:    parsed.FileName,
		ContentType: "text",
		Content:     parsed.Text,
		Size:        parsed.Size,
		Encoding:    "utf-8",
	}), nil
}

func (s *Server) handleReadJSONFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := stringArg(args, "file_path")
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	parsed, err := s.reader.ReadJSON(path)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	// A single record renders as an object, multiple as an array, the
	// same shapes the source document had.
	var body any
	if len(parsed.Records) == 1 {
		body = parsed.Records[0]
	} else {
		body = parsed.Records
	}

	return jsonResult(s.logger, FileContent{
		Filename:    parsed.FileName,
		ContentType: "json",
		Content:     body,
		Size:        parsed.Size,
		Encoding:    "utf-8",
	}), nil
}

func (s *Server) handleReadCSVFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := stringArg(args, "file_path")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	delimiter, err := delimiterArg(args, "delimiter")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	maxRows, err := optionalIntArg(args, "max_rows", -1)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	parsed, err := s.reader.ReadCSV(path, delimiter, maxRows)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	payload := CSVContent{
		Filename:    parsed.FileName,
		ContentType: "csv",
		Header:      parsed.Table.Header,
		Rows:        parsed.Table.Rows,
		Size:        parsed.Size,
		Encoding:    "utf-8",
	}
	if parsed.Truncation != nil {
		payload.Truncation = &TruncationFact{OmittedRows: parsed.Truncation.OmittedRows}
	}
	return jsonResult(s.logger, payload), nil
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := stringArg(args, "directory_path")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	extensions, err := stringSliceArg(args, "file_extensions")
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	listing, err := s.reader.ListDir(path, extensions)
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	return jsonResult(s.logger, listing), nil
}

func (s *Server) handleCreateNotionPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.requireNotion()
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	args := request.GetArguments()
	title, err := stringArg(args, "title")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	dbArg, err := optionalStringArg(args, "database_id")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	databaseID, err := s.databaseID(dbArg)
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	body, err := optionalStringArg(args, "content")
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	var properties map[string]content.Value
	if raw, ok := args["properties"]; ok && raw != nil {
		obj, ok := raw.(map[string]any)
		if !ok {
			return errorResult(s.logger, errs.New(errs.KindValidation,
				"argument %q must be an object", "properties")), nil
		}
		properties = make(map[string]content.Value, len(obj))
		for key, val := range obj {
			properties[key] = content.FromAny(val)
		}
	}

	var blocks []content.Block
	if body != "" {
		blocks = s.normalizer.Normalize(content.Parsed{
			Format: content.FormatText,
			Text:   body,
		})
	}

	req, err := notion.BuildPageRequest(databaseID, title, blocks, properties, nil)
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	page, err := client.CreatePage(ctx, req)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	return jsonResult(s.logger, PageCreated{
		PageID:      page.ID,
		URL:         page.URL,
		Title:       req.Title(),
		CreatedTime: page.CreatedTime,
		Status:      "created",
	}), nil
}

func (s *Server) handleCreatePageFromFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.requireNotion()
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	args := request.GetArguments()
	path, err := stringArg(args, "file_path")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	dbArg, err := optionalStringArg(args, "database_id")
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	databaseID, err := s.databaseID(dbArg)
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	customTitle, err := optionalStringArg(args, "page_title")
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	parsed, err := s.reader.ReadAuto(path)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	title := customTitle
	var properties map[string]content.Value

	if isMarkdown(parsed.Ext) && parsed.Format == content.FormatText {
		matterTitle, props, rest, ferr := parseFrontmatter(parsed.Text)
		if ferr != nil {
			return errorResult(s.logger, ferr), nil
		}
		parsed.Text = rest
		properties = props
		if title == "" {
			title = matterTitle
		}
	}
	if title == "" {
		title = fmt.Sprintf("File: %s", parsed.FileName)
	}

	blocks := s.normalizer.Normalize(parsed)

	req, err := notion.BuildPageRequest(databaseID, title, blocks, properties, nil)
	if err != nil {
		return errorResult(s.logger, err), nil
	}
	page, err := client.CreatePage(ctx, req)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	return jsonResult(s.logger, PageCreated{
		PageID:      page.ID,
		URL:         page.URL,
		Title:       req.Title(),
		CreatedTime: page.CreatedTime,
		Status:      "created",
		FileInfo: &FileInfo{
			Filename:    parsed.FileName,
			ContentType: string(parsed.Format),
			FileSize:    parsed.Size,
		},
	}), nil
}

func (s *Server) handleListDatabases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.requireNotion()
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	databases, err := client.SearchDatabases(ctx)
	if err != nil {
		return errorResult(s.logger, err), nil
	}

	return jsonResult(s.logger, struct {
		Databases  []notion.Database `json:"databases"`
		TotalCount int               `json:"total_count"`
	}{
		Databases:  databases,
		TotalCount: len(databases),
	}), nil
}

func isMarkdown(ext string) bool {
	return ext == ".md" || ext == ".markdown"
}

// parseFrontmatter splits a markdown document into its YAML frontmatter
// and body. A "title" field becomes the page title; remaining scalar
// fields become rich-text page properties. Documents without frontmatter
// pass through unchanged.
func parseFrontmatter(text string) (title string, properties map[string]content.Value, rest string, err error) {
	var matter map[string]any
	body, ferr := frontmatter.Parse(strings.NewReader(text), &matter)
	if ferr != nil {
		return "", nil, "", errs.Wrap(errs.KindMalformedData, ferr, "invalid frontmatter")
	}
	if len(matter) == 0 {
		return "", nil, string(body), nil
	}

	for key, val := range matter {
		switch v := val.(type) {
		case string:
			if key == "title" {
				title = v
				continue
			}
			if properties == nil {
				properties = make(map[string]content.Value)
			}
			properties[key] = notion.RichTextValue(v)
		default:
			// Non-string frontmatter values are dropped; the Notion
			// property shapes they would need are not inferable here.
		}
	}
	return title, properties, string(body), nil
}
