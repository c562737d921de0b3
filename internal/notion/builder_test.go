package notion

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"notedrop/internal/content"
	"notedrop/internal/errs"
)

func TestBuildPageRequestValidation(t *testing.T) {
	blocks := []content.Block{content.Paragraph("hello")}

	tests := []struct {
		name       string
		databaseID string
		title      string
	}{
		{"empty database ID", "", "Title"},
		{"whitespace database ID", "   ", "Title"},
		{"empty title", "db1", ""},
		{"whitespace title", "db1", "  \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPageRequest(tt.databaseID, tt.title, blocks, nil, nil)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !errs.IsKind(err, errs.KindValidation) {
				t.Errorf("expected Validation kind, got %v", errs.KindOf(err))
			}
		})
	}
}

func TestBuildPageRequestBasic(t *testing.T) {
	blocks := []content.Block{content.Paragraph("hello"), content.Code("x := 1", "go")}

	req, err := BuildPageRequest("db1", "My Page", blocks, nil, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}

	if req.DatabaseID() != "db1" {
		t.Errorf("DatabaseID = %q", req.DatabaseID())
	}
	if req.Title() != "My Page" {
		t.Errorf("Title = %q", req.Title())
	}
	if len(req.Blocks()) != 2 {
		t.Errorf("block count = %d, want 2", len(req.Blocks()))
	}
}

func TestBuildPageRequestIsIdempotent(t *testing.T) {
	blocks := []content.Block{content.Paragraph("a"), content.Paragraph("b")}
	props := map[string]content.Value{"Status": content.String("draft")}

	first, err := BuildPageRequest("db1", "Title", blocks, props, nil)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	second, err := BuildPageRequest("db1", "Title", blocks, props, nil)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}

	if !reflect.DeepEqual(first.Blocks(), second.Blocks()) {
		t.Error("blocks differ between identical builds")
	}
	if !reflect.DeepEqual(first.Properties(), second.Properties()) {
		t.Error("properties differ between identical builds")
	}
	if first.Title() != second.Title() || first.DatabaseID() != second.DatabaseID() {
		t.Error("metadata differs between identical builds")
	}
}

func TestBuildPageRequestTruncatesBlocks(t *testing.T) {
	blocks := make([]content.Block, 150)
	for i := range blocks {
		blocks[i] = content.Paragraph(fmt.Sprintf("paragraph %d", i))
	}

	req, err := BuildPageRequest("db1", "Big Page", blocks, nil, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}

	got := req.Blocks()
	if len(got) != MaxBlocksPerRequest {
		t.Fatalf("block count = %d, want %d", len(got), MaxBlocksPerRequest)
	}

	last := got[len(got)-1]
	if last.Type != content.BlockParagraph {
		t.Fatalf("last block type = %s, want paragraph", last.Type)
	}
	// 150 input blocks, 99 kept: 51 omitted.
	if !strings.Contains(last.Text, "51 more blocks omitted") {
		t.Errorf("omission note = %q", last.Text)
	}
}

func TestBuildPageRequestClipsTitle(t *testing.T) {
	long := strings.Repeat("t", MaxTitleLength+50)

	req, err := BuildPageRequest("db1", long, nil, nil, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}
	if got := len([]rune(req.Title())); got != MaxTitleLength {
		t.Errorf("title length = %d, want %d", got, MaxTitleLength)
	}
}

func TestBuildPageRequestPropertySchema(t *testing.T) {
	props := map[string]content.Value{
		"Status": content.String("draft"),
		"Zeta":   content.String("x"),
	}

	t.Run("nil schema passes properties through", func(t *testing.T) {
		req, err := BuildPageRequest("db1", "Title", nil, props, nil)
		if err != nil {
			t.Fatalf("BuildPageRequest failed: %v", err)
		}
		if len(req.Properties()) != 2 {
			t.Errorf("property count = %d, want 2", len(req.Properties()))
		}
	})

	t.Run("unknown key fails fast and is named", func(t *testing.T) {
		_, err := BuildPageRequest("db1", "Title", nil, props, []string{"Status"})
		if err == nil {
			t.Fatal("expected validation error for unknown key")
		}
		if !errs.IsKind(err, errs.KindValidation) {
			t.Errorf("expected Validation kind, got %v", errs.KindOf(err))
		}
		if !strings.Contains(err.Error(), `"Zeta"`) {
			t.Errorf("error should name the offending key: %v", err)
		}
	})

	t.Run("all keys in schema", func(t *testing.T) {
		_, err := BuildPageRequest("db1", "Title", nil, props, []string{"Status", "Zeta"})
		if err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})
}

func TestPageRequestImmutability(t *testing.T) {
	blocks := []content.Block{content.Paragraph("original")}
	req, err := BuildPageRequest("db1", "Title", blocks, nil, nil)
	if err != nil {
		t.Fatalf("BuildPageRequest failed: %v", err)
	}

	// Mutating the caller's slice or the accessor's copy must not leak
	// into the request.
	blocks[0] = content.Paragraph("mutated input")
	got := req.Blocks()
	got[0] = content.Paragraph("mutated copy")

	if req.Blocks()[0].Text != "original" {
		t.Error("PageRequest blocks are not isolated from external mutation")
	}
}
