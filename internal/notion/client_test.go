package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"notedrop/internal/content"
	"notedrop/internal/errs"
	"notedrop/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := logging.NewTestLogger()
	client, err := NewClient("secret-token", logger, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	_, err := NewClient("", logger)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("expected Validation error for empty token, got %v", err)
	}
}

func TestCreatePage(t *testing.T) {
	var captured map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/pages" {
			t.Errorf("path = %s, want /v1/pages", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("Notion-Version = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "page-1", "url": "https://notion.so/page-1", "created_time": "2024-01-02T03:04:05Z"}`)
	})

	req, err := BuildPageRequest("db1", "Report", []content.Block{
		content.Paragraph("hello"),
		content.Code("print(1)", "python"),
		content.TableBlock([]string{"id", "name"}, [][]string{{"1", "Alice"}}),
	}, nil, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}

	page, err := client.CreatePage(context.Background(), req)
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}

	if page.ID != "page-1" {
		t.Errorf("page ID = %q", page.ID)
	}
	if page.Title != "Report" {
		t.Errorf("page title = %q", page.Title)
	}

	parent, ok := captured["parent"].(map[string]any)
	if !ok || parent["database_id"] != "db1" {
		t.Errorf("parent = %v", captured["parent"])
	}

	props, ok := captured["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing: %v", captured)
	}
	if _, ok := props["Name"]; !ok {
		t.Errorf("title property Name missing: %v", props)
	}

	children, ok := captured["children"].([]any)
	if !ok || len(children) != 3 {
		t.Fatalf("children = %v", captured["children"])
	}

	first := children[0].(map[string]any)
	if first["type"] != "paragraph" {
		t.Errorf("first block type = %v", first["type"])
	}
	second := children[1].(map[string]any)
	if second["type"] != "code" {
		t.Errorf("second block type = %v", second["type"])
	}
	third := children[2].(map[string]any)
	if third["type"] != "table" {
		t.Errorf("third block type = %v", third["type"])
	}
	table := third["table"].(map[string]any)
	if table["table_width"] != float64(2) {
		t.Errorf("table_width = %v, want 2", table["table_width"])
	}
	// Header row plus one body row.
	if rows := table["children"].([]any); len(rows) != 2 {
		t.Errorf("table rows = %d, want 2", len(rows))
	}
}

func TestCreatePagePassthroughProperties(t *testing.T) {
	var captured map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"id": "page-2", "url": "u", "created_time": "t"}`)
	})

	props := map[string]content.Value{
		"Status": RichTextValue("draft"),
	}
	req, err := BuildPageRequest("db1", "Titled", nil, props, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}

	if _, err := client.CreatePage(context.Background(), req); err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}

	sentProps := captured["properties"].(map[string]any)
	status, ok := sentProps["Status"].(map[string]any)
	if !ok {
		t.Fatalf("Status property missing: %v", sentProps)
	}
	if _, ok := status["rich_text"]; !ok {
		t.Errorf("Status should carry rich_text shape: %v", status)
	}
}

func TestSearchDatabases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %s, want /v1/search", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		json.Unmarshal(body, &req)
		filter, _ := req["filter"].(map[string]any)
		if filter["value"] != "database" {
			t.Errorf("search filter = %v", req["filter"])
		}

		io.WriteString(w, `{"results": [
			{"id": "db-1", "url": "u1", "title": [{"plain_text": "Projects"}], "created_time": "c1", "last_edited_time": "e1"},
			{"id": "db-2", "url": "u2", "title": [], "created_time": "c2", "last_edited_time": "e2"}
		]}`)
	})

	databases, err := client.SearchDatabases(context.Background())
	if err != nil {
		t.Fatalf("SearchDatabases failed: %v", err)
	}

	if len(databases) != 2 {
		t.Fatalf("database count = %d, want 2", len(databases))
	}
	if databases[0].Title != "Projects" {
		t.Errorf("first title = %q", databases[0].Title)
	}
	if databases[1].Title != "Untitled" {
		t.Errorf("untitled database title = %q, want Untitled", databases[1].Title)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   errs.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, errs.KindAuth},
		{"not found", http.StatusNotFound, errs.KindRemoteNotFound},
		{"rate limited", http.StatusTooManyRequests, errs.KindRateLimited},
		{"validation rejected", http.StatusBadRequest, errs.KindValidationRejected},
		{"server error", http.StatusInternalServerError, errs.KindExternalAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"message": "something went wrong"}`)
			})

			_, err := client.SearchDatabases(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errs.IsKind(err, tt.kind) {
				t.Errorf("kind = %v, want %v", errs.KindOf(err), tt.kind)
			}
		})
	}
}
