// Package content holds the data model shared by the ingestion pipeline:
// the tagged JSON Value type, parsed file content, renderable page blocks,
// and the normalizer that turns one into the other.
//
// Everything here is a value object constructed and consumed within a
// single tool invocation; nothing is shared or mutated across calls.
package content

// Format tags the parsed representation of a source file.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Truncation records that part of the input was cut to respect a size
// limit. It annotates a successful result; it is never an error.
type Truncation struct {
	OmittedRows int
}

// Record is one structured entry from a JSON source, as ordered key/value
// pairs.
type Record []Member

// MarshalJSON renders the record as a JSON object, preserving key order.
func (r Record) MarshalJSON() ([]byte, error) {
	return Object([]Member(r)...).MarshalJSON()
}

// Table is tabular data with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Parsed is the typed output of the source reader. Exactly one of Text,
// Records or Table is populated, matching Format.
type Parsed struct {
	FileName string
	Ext      string // lower-cased extension including the dot
	Format   Format
	Size     int // size of the raw content in bytes

	Text    string
	Records []Record
	Table   *Table

	// Truncation is set when maxRows cut the result short.
	Truncation *Truncation
}

// BlockType discriminates the variants of Block.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockCode      BlockType = "code"
	BlockTable     BlockType = "table"
)

// Block is one renderable unit of page content.
type Block struct {
	Type BlockType

	// Paragraph and code content.
	Text string

	// Code language hint (code blocks only).
	Language string

	// Table content (table blocks only).
	Header []string
	Rows   [][]string
}

// Paragraph builds a paragraph block.
func Paragraph(text string) Block {
	return Block{Type: BlockParagraph, Text: text}
}

// Code builds a code block with a language hint.
func Code(text, language string) Block {
	return Block{Type: BlockCode, Text: text, Language: language}
}

// TableBlock builds a table block.
func TableBlock(header []string, rows [][]string) Block {
	return Block{Type: BlockTable, Header: header, Rows: rows}
}
