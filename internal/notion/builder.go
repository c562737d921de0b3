// Package notion builds page-creation requests and dispatches them to the
// Notion REST API. The builder is pure and performs no I/O; the Client is
// the only place in the repository that talks to the network.
package notion

import (
	"fmt"
	"sort"
	"strings"

	"notedrop/internal/content"
	"notedrop/internal/errs"
)

// Documented Notion API maxima.
const (
	// MaxBlocksPerRequest is the block limit for a single page create call.
	MaxBlocksPerRequest = 100
	// MaxTitleLength is the character limit for a rich_text payload, which
	// also bounds page titles.
	MaxTitleLength = 2000
)

// PageRequest is a validated, immutable page-creation request. Build it
// with BuildPageRequest; the zero value is not usable.
type PageRequest struct {
	databaseID string
	title      string
	blocks     []content.Block
	properties map[string]content.Value
}

func (r PageRequest) DatabaseID() string { return r.databaseID }
func (r PageRequest) Title() string      { return r.title }

// Blocks returns a copy of the block sequence.
func (r PageRequest) Blocks() []content.Block {
	out := make([]content.Block, len(r.blocks))
	copy(out, r.blocks)
	return out
}

// Properties returns a copy of the property mapping.
func (r PageRequest) Properties() map[string]content.Value {
	out := make(map[string]content.Value, len(r.properties))
	for k, v := range r.properties {
		out[k] = v
	}
	return out
}

// BuildPageRequest merges normalized blocks with caller metadata into a
// single validated request.
//
// Exceeding the block limit is not an error: the request keeps the first
// MaxBlocksPerRequest-1 blocks and appends a closing paragraph stating how
// many were omitted. Unknown property keys fail fast when a schema (the
// set of allowed property names) is supplied; a nil schema passes
// properties through untouched.
func BuildPageRequest(databaseID, title string, blocks []content.Block, properties map[string]content.Value, schema []string) (PageRequest, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return PageRequest{}, errs.New(errs.KindValidation, "database ID cannot be empty")
	}
	if strings.TrimSpace(title) == "" {
		return PageRequest{}, errs.New(errs.KindValidation, "page title cannot be empty")
	}

	if runes := []rune(title); len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength])
	}

	if schema != nil {
		if err := validateProperties(properties, schema); err != nil {
			return PageRequest{}, err
		}
	}

	bounded := make([]content.Block, 0, min(len(blocks), MaxBlocksPerRequest))
	if len(blocks) > MaxBlocksPerRequest {
		omitted := len(blocks) - (MaxBlocksPerRequest - 1)
		bounded = append(bounded, blocks[:MaxBlocksPerRequest-1]...)
		bounded = append(bounded, content.Paragraph(fmt.Sprintf("(%d more blocks omitted)", omitted)))
	} else {
		bounded = append(bounded, blocks...)
	}

	props := make(map[string]content.Value, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	return PageRequest{
		databaseID: databaseID,
		title:      title,
		blocks:     bounded,
		properties: props,
	}, nil
}

// validateProperties fails on the first property key absent from the
// schema. Keys are checked in sorted order so the reported offender is
// deterministic.
func validateProperties(properties map[string]content.Value, schema []string) error {
	allowed := make(map[string]bool, len(schema))
	for _, name := range schema {
		allowed[name] = true
	}

	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !allowed[k] {
			return errs.New(errs.KindValidation, "unknown property key: %q", k)
		}
	}
	return nil
}
