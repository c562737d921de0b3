package mcp

import (
	"encoding/json"

	"notedrop/internal/errs"
	"notedrop/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// FileContent is the success payload of the file-reading tools. The shape
// mirrors the tool contract: filename, declared content type, the content
// itself, raw size in bytes and encoding.
type FileContent struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     any    `json:"content"`
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"`
}

// CSVContent is the success payload of read_csv_file.
type CSVContent struct {
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Header      []string        `json:"header"`
	Rows        [][]string      `json:"rows"`
	Size        int             `json:"size"`
	Encoding    string          `json:"encoding"`
	Truncation  *TruncationFact `json:"truncation,omitempty"`
}

// TruncationFact annotates a successful result that was cut to respect a
// size limit.
type TruncationFact struct {
	OmittedRows int `json:"omitted_rows"`
}

// PageCreated is the success payload of the page-creation tools.
type PageCreated struct {
	PageID      string    `json:"page_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	CreatedTime string    `json:"created_time"`
	Status      string    `json:"status"`
	FileInfo    *FileInfo `json:"file_info,omitempty"`
}

// FileInfo summarizes the source file of a page created from a file.
type FileInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int    `json:"file_size"`
}

// errorPayload is what every failing tool call returns: a kind from the
// error taxonomy plus a human-readable message. Errors never escape as Go
// errors; the process stays up.
type errorPayload struct {
	Error string    `json:"error"`
	Kind  errs.Kind `json:"kind"`
}

// jsonResult marshals a success payload into a tool text result.
func jsonResult(logger *logging.AppLogger, payload any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal tool payload", "error", err)
		return mcp.NewToolResultError(`{"error": "internal: failed to encode payload", "kind": "external_api"}`)
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult converts a pipeline error into a structured error payload.
func errorResult(logger *logging.AppLogger, err error) *mcp.CallToolResult {
	payload := errorPayload{
		Error: err.Error(),
		Kind:  errs.KindOf(err),
	}
	logger.Warn("Tool call failed", "kind", payload.Kind, "error", payload.Error)

	data, merr := json.Marshal(payload)
	if merr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}
