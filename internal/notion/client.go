package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notedrop/internal/errs"
	"notedrop/internal/logging"
)

const (
	defaultBaseURL = "https://api.notion.com"
	notionVersion  = "2022-06-28"
)

// Page describes a created Notion page.
type Page struct {
	ID          string `json:"page_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	CreatedTime string `json:"created_time"`
}

// Database describes a database reachable by the integration.
type Database struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	CreatedTime    string `json:"created_time"`
	LastEditedTime string `json:"last_edited_time"`
}

// Client talks to the Notion REST API. It makes exactly one attempt per
// call; retry policy, if any, belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.AppLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Notion API client.
func NewClient(token string, logger *logging.AppLogger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errs.New(errs.KindValidation, "notion API token is required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreatePage creates a page in a database from a built request.
func (c *Client) CreatePage(ctx context.Context, req PageRequest) (Page, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": req.DatabaseID()},
		"properties": pageProperties(req),
	}
	if children := blockChildren(req); len(children) > 0 {
		body["children"] = children
	}

	var resp struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		CreatedTime string `json:"created_time"`
	}
	if err := c.post(ctx, "/v1/pages", body, &resp); err != nil {
		return Page{}, err
	}

	c.logger.Info("Created Notion page", "pageID", resp.ID, "title", req.Title())

	return Page{
		ID:          resp.ID,
		URL:         resp.URL,
		Title:       req.Title(),
		CreatedTime: resp.CreatedTime,
	}, nil
}

// SearchDatabases lists the databases shared with the integration, in the
// order the API returns them.
func (c *Client) SearchDatabases(ctx context.Context) ([]Database, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property": "object",
			"value":    "database",
		},
	}

	var resp struct {
		Results []struct {
			ID    string `json:"id"`
			URL   string `json:"url"`
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
			CreatedTime    string `json:"created_time"`
			LastEditedTime string `json:"last_edited_time"`
		} `json:"results"`
	}
	if err := c.post(ctx, "/v1/search", body, &resp); err != nil {
		return nil, err
	}

	databases := make([]Database, 0, len(resp.Results))
	for _, db := range resp.Results {
		title := "Untitled"
		if len(db.Title) > 0 && db.Title[0].PlainText != "" {
			title = db.Title[0].PlainText
		}
		databases = append(databases, Database{
			ID:             db.ID,
			Title:          title,
			URL:            db.URL,
			CreatedTime:    db.CreatedTime,
			LastEditedTime: db.LastEditedTime,
		})
	}

	return databases, nil
}

// post sends one JSON request and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(errs.KindValidation, err, "encoding request for %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(errs.KindExternalAPI, err, "building request for %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindExternalAPI, err, "calling Notion API %s", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.KindExternalAPI, err, "reading Notion API response for %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errs.Wrap(errs.KindExternalAPI, err, "decoding Notion API response for %s", path)
		}
	}
	return nil
}

// apiError maps a Notion error response into the local taxonomy.
func apiError(status int, body []byte) error {
	message := fmt.Sprintf("Notion API returned status %d", status)
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		message = parsed.Message
	}

	var kind errs.Kind
	switch status {
	case http.StatusUnauthorized:
		kind = errs.KindAuth
	case http.StatusNotFound:
		kind = errs.KindRemoteNotFound
	case http.StatusTooManyRequests:
		kind = errs.KindRateLimited
	case http.StatusBadRequest:
		kind = errs.KindValidationRejected
	default:
		kind = errs.KindExternalAPI
	}

	return errs.New(kind, "%s", message)
}
