package notion

import (
	"notedrop/internal/content"
)

// titleProperty is the property name Notion databases use for the page
// title column by default.
const titleProperty = "Name"

// richText builds a single-element rich_text array.
func richText(text string) []any {
	return []any{
		map[string]any{
			"type": "text",
			"text": map[string]any{"content": text},
		},
	}
}

// RichTextValue wraps plain text in the rich_text property shape. Used
// for properties derived from markdown frontmatter.
func RichTextValue(text string) content.Value {
	return content.Object(
		content.Member{Key: "rich_text", Value: content.Array(
			content.Object(
				content.Member{Key: "type", Value: content.String("text")},
				content.Member{Key: "text", Value: content.Object(
					content.Member{Key: "content", Value: content.String(text)},
				)},
			),
		)},
	)
}

// pageProperties renders the request's title and pass-through properties
// into Notion's property object.
func pageProperties(req PageRequest) map[string]any {
	props := map[string]any{
		titleProperty: map[string]any{
			"title": richText(req.Title()),
		},
	}
	for name, value := range req.Properties() {
		props[name] = value
	}
	return props
}

// blockChildren renders the request's blocks into Notion block objects.
func blockChildren(req PageRequest) []any {
	blocks := req.Blocks()
	children := make([]any, 0, len(blocks))
	for _, b := range blocks {
		children = append(children, blockToNotion(b))
	}
	return children
}

func blockToNotion(b content.Block) map[string]any {
	switch b.Type {
	case content.BlockCode:
		return map[string]any{
			"object": "block",
			"type":   "code",
			"code": map[string]any{
				"rich_text": richText(b.Text),
				"language":  b.Language,
			},
		}
	case content.BlockTable:
		return tableToNotion(b)
	default:
		return map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": richText(b.Text),
			},
		}
	}
}

// tableToNotion renders a table block with the header as a column-header
// row followed by the body rows.
func tableToNotion(b content.Block) map[string]any {
	rows := make([]any, 0, len(b.Rows)+1)
	rows = append(rows, tableRow(b.Header))
	for _, r := range b.Rows {
		rows = append(rows, tableRow(r))
	}

	return map[string]any{
		"object": "block",
		"type":   "table",
		"table": map[string]any{
			"table_width":       len(b.Header),
			"has_column_header": true,
			"children":          rows,
		},
	}
}

func tableRow(cells []string) map[string]any {
	rendered := make([]any, 0, len(cells))
	for _, c := range cells {
		rendered = append(rendered, richText(c))
	}
	return map[string]any{
		"object": "block",
		"type":   "table_row",
		"table_row": map[string]any{
			"cells": rendered,
		},
	}
}
