package content

import (
	"fmt"
	"strings"
)

// Default limits, matching what the Notion API documents for a single
// rich_text payload and what keeps tables readable in the UI.
const (
	DefaultPerBlockLimit   = 2000
	DefaultMaxRowsPerTable = 100
)

// continuationMarker is appended to every non-final piece of a split
// paragraph so truncated boundaries are visible in the page.
const continuationMarker = " …"

// codeLanguages maps source file extensions to Notion language hints.
// Files with these extensions are rendered as code blocks rather than
// prose paragraphs.
var codeLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "c++",
	".java": "java",
	".rb":   "ruby",
	".sh":   "shell",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "markup",
}

// Normalizer converts parsed file content into a bounded, ordered sequence
// of page blocks. Given identical input and limits the output is
// byte-identical; blocks are only ever appended, never reordered.
type Normalizer struct {
	PerBlockLimit   int
	MaxRowsPerTable int
}

// NewNormalizer creates a Normalizer, applying defaults for
// non-positive limits.
func NewNormalizer(perBlockLimit, maxRowsPerTable int) *Normalizer {
	if perBlockLimit <= 0 {
		perBlockLimit = DefaultPerBlockLimit
	}
	if maxRowsPerTable <= 0 {
		maxRowsPerTable = DefaultMaxRowsPerTable
	}
	return &Normalizer{
		PerBlockLimit:   perBlockLimit,
		MaxRowsPerTable: maxRowsPerTable,
	}
}

// Normalize turns parsed content into page blocks.
func (n *Normalizer) Normalize(p Parsed) []Block {
	switch p.Format {
	case FormatJSON:
		return n.normalizeRecords(p.Records)
	case FormatCSV:
		if p.Table == nil {
			return nil
		}
		return n.normalizeTable(*p.Table)
	default:
		return n.normalizeText(p)
	}
}

// normalizeText splits prose on blank-line boundaries into paragraphs.
// Source code files become code blocks instead, tagged with a language
// hint derived from the extension.
func (n *Normalizer) normalizeText(p Parsed) []Block {
	if lang, ok := codeLanguages[p.Ext]; ok {
		var blocks []Block
		for _, piece := range chunkText(p.Text, n.PerBlockLimit, "") {
			blocks = append(blocks, Code(piece, lang))
		}
		return blocks
	}

	var blocks []Block
	// Splitting strictly on "\n\n" keeps the transform lossless: joining
	// the paragraphs back with "\n\n" reproduces the input byte for byte.
	for _, para := range strings.Split(p.Text, "\n\n") {
		for _, piece := range chunkText(para, n.PerBlockLimit, continuationMarker) {
			blocks = append(blocks, Paragraph(piece))
		}
	}
	return blocks
}

// normalizeRecords renders each record as a readable key: value paragraph.
func (n *Normalizer) normalizeRecords(records []Record) []Block {
	var blocks []Block
	for _, rec := range records {
		lines := make([]string, 0, len(rec))
		for _, m := range rec {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Key, m.Value.String()))
		}
		text := strings.Join(lines, "\n")
		for _, piece := range chunkText(text, n.PerBlockLimit, continuationMarker) {
			blocks = append(blocks, Paragraph(piece))
		}
	}
	return blocks
}

// normalizeTable emits a single table block when the row count fits,
// otherwise several blocks of at most MaxRowsPerTable rows, repeating the
// header in each.
func (n *Normalizer) normalizeTable(t Table) []Block {
	if len(t.Rows) <= n.MaxRowsPerTable {
		return []Block{TableBlock(t.Header, t.Rows)}
	}

	var blocks []Block
	for start := 0; start < len(t.Rows); start += n.MaxRowsPerTable {
		end := start + n.MaxRowsPerTable
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		blocks = append(blocks, TableBlock(t.Header, t.Rows[start:end]))
	}
	return blocks
}

// chunkText splits s into rune-bounded pieces no longer than limit.
// The marker is appended to every non-final piece; pieces are sized so
// that piece+marker never exceeds the limit. Trailing content is never
// dropped. An empty input yields a single empty piece so blank paragraphs
// survive the round trip.
func chunkText(s string, limit int, marker string) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	step := limit - len([]rune(marker))
	if step < 1 {
		step = 1
	}

	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + step
		if end >= len(runes) {
			pieces = append(pieces, string(runes[start:]))
			break
		}
		pieces = append(pieces, string(runes[start:end])+marker)
	}
	return pieces
}
