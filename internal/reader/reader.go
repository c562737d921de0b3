// Package reader resolves and reads local source files for the ingestion
// pipeline. Every path is canonicalized and confined to a configured
// allow-list of base directories before any filesystem access happens;
// escapes are rejected regardless of whether the target exists.
//
// Access is strictly read-only.
package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"notedrop/internal/content"
	"notedrop/internal/errs"
	"notedrop/internal/logging"
)

// FileRef is a validated reference to a file inside the allowed roots.
type FileRef struct {
	Path   string // canonical absolute path
	Name   string // base name
	Ext    string // lower-cased extension including the dot
	Format content.Format
}

// Reader performs validated filesystem reads.
type Reader struct {
	allowedDirs []string // canonical absolute roots
	maxFileSize int64
	logger      *logging.AppLogger
}

// NewReader creates a Reader confined to the given base directories.
// Each root must exist and be a directory; roots are canonicalized once
// here so later containment checks compare like with like.
func NewReader(allowedDirs []string, maxFileSize int64, logger *logging.AppLogger) (*Reader, error) {
	if len(allowedDirs) == 0 {
		return nil, errs.New(errs.KindValidation, "at least one allowed directory is required")
	}

	canonical := make([]string, 0, len(allowedDirs))
	for _, dir := range allowedDirs {
		resolved, err := canonicalDir(dir)
		if err != nil {
			return nil, err
		}
		canonical = append(canonical, resolved)
	}

	logger.Debug("Reader initialized", "allowedDirs", canonical, "maxFileSize", maxFileSize)

	return &Reader{
		allowedDirs: canonical,
		maxFileSize: maxFileSize,
		logger:      logger,
	}, nil
}

// canonicalDir expands, absolutizes and symlink-resolves an allowed root.
func canonicalDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errs.New(errs.KindValidation, "allowed directory cannot be empty")
	}

	abs, err := filepath.Abs(expandPath(dir))
	if err != nil {
		return "", errs.Wrap(errs.KindValidation, err, "cannot resolve allowed directory %q", dir)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errs.New(errs.KindNotFound, "allowed directory does not exist: %s", abs)
		}
		return "", errs.Wrap(errs.KindValidation, err, "cannot resolve allowed directory %q", dir)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", errs.New(errs.KindValidation, "allowed directory is not a directory: %s", abs)
	}

	return resolved, nil
}

// expandPath expands a leading "~/" to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Resolve canonicalizes a caller-supplied path and checks it against the
// allowed roots. The traversal check happens before any stat, so an
// escaping path fails the same way whether or not its target exists.
// When declared is empty the format is inferred from the extension.
func (r *Reader) Resolve(path string, declared content.Format) (FileRef, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return FileRef{}, errs.New(errs.KindValidation, "file path cannot be empty")
	}

	abs, err := filepath.Abs(expandPath(trimmed))
	if err != nil {
		return FileRef{}, errs.Wrap(errs.KindValidation, err, "cannot resolve path %q", path)
	}
	canonical := r.resolveSymlinks(abs)

	if !r.contained(canonical) {
		return FileRef{}, errs.New(errs.KindPathTraversal,
			"path escapes the allowed directories: %s", trimmed)
	}

	ext := strings.ToLower(filepath.Ext(canonical))
	format := declared
	if format == "" {
		format = inferFormat(ext)
	}

	return FileRef{
		Path:   canonical,
		Name:   filepath.Base(canonical),
		Ext:    ext,
		Format: format,
	}, nil
}

// resolveSymlinks resolves the deepest existing ancestor of path so a
// symlink inside an allowed root cannot smuggle reads outside of it.
// Non-existing trailing components are re-joined unresolved; cleanliness
// is enough for the containment check and the later stat reports
// NotFound with the caller's path intact.
func (r *Reader) resolveSymlinks(abs string) string {
	remainder := ""
	current := filepath.Clean(abs)
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, remainder)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Join(current, remainder)
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}

// contained reports whether canonical sits under one of the allowed roots.
func (r *Reader) contained(canonical string) bool {
	for _, root := range r.allowedDirs {
		rel, err := filepath.Rel(root, canonical)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))) {
			return true
		}
	}
	return false
}

func inferFormat(ext string) content.Format {
	switch ext {
	case ".json":
		return content.FormatJSON
	case ".csv":
		return content.FormatCSV
	default:
		// Unknown extensions default to text.
		return content.FormatText
	}
}

// readAll loads the referenced file, enforcing the existence, type and
// size constraints shared by every read operation.
func (r *Reader) readAll(ref FileRef) ([]byte, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return nil, classifyFSError(err, ref.Path)
	}
	if !info.Mode().IsRegular() {
		return nil, errs.New(errs.KindValidation, "path is not a regular file: %s", ref.Path)
	}
	if r.maxFileSize > 0 && info.Size() > r.maxFileSize {
		return nil, errs.New(errs.KindValidation,
			"file exceeds maximum size of %d bytes: %s (%d bytes)", r.maxFileSize, ref.Path, info.Size())
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, classifyFSError(err, ref.Path)
	}
	return data, nil
}

func classifyFSError(err error, path string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errs.Wrap(errs.KindNotFound, err, "file not found: %s", path)
	case errors.Is(err, fs.ErrPermission):
		return errs.Wrap(errs.KindPermission, err, "permission denied: %s", path)
	default:
		return errs.Wrap(errs.KindValidation, err, "cannot access: %s", path)
	}
}

// ReadText reads the full file as UTF-8 text. A zero-byte file is an
// empty-but-valid result, not an error.
func (r *Reader) ReadText(path string) (content.Parsed, error) {
	ref, err := r.Resolve(path, content.FormatText)
	if err != nil {
		return content.Parsed{}, err
	}

	data, err := r.readAll(ref)
	if err != nil {
		return content.Parsed{}, err
	}

	if !utf8.Valid(data) {
		return content.Parsed{}, errs.New(errs.KindEncoding, "file is not valid UTF-8: %s", ref.Path)
	}

	r.logger.Debug("Read text file", "path", ref.Path, "size", len(data))

	return content.Parsed{
		FileName: ref.Name,
		Ext:      ref.Ext,
		Format:   content.FormatText,
		Size:     len(data),
		Text:     string(data),
	}, nil
}

// ReadJSON reads and parses the file into records. A top-level object is
// one record; an array yields one record per element; a scalar is wrapped
// as a single-entry record for uniformity.
func (r *Reader) ReadJSON(path string) (content.Parsed, error) {
	ref, err := r.Resolve(path, content.FormatJSON)
	if err != nil {
		return content.Parsed{}, err
	}

	data, err := r.readAll(ref)
	if err != nil {
		return content.Parsed{}, err
	}
	if !utf8.Valid(data) {
		return content.Parsed{}, errs.New(errs.KindEncoding, "file is not valid UTF-8: %s", ref.Path)
	}

	value, err := content.DecodeValue(data)
	if err != nil {
		return content.Parsed{}, errs.Wrap(errs.KindMalformedData, err, "parsing %s", ref.Path)
	}

	records := recordsFromValue(value)

	r.logger.Debug("Read JSON file", "path", ref.Path, "records", len(records))

	return content.Parsed{
		FileName: ref.Name,
		Ext:      ref.Ext,
		Format:   content.FormatJSON,
		Size:     len(data),
		Records:  records,
	}, nil
}

// recordsFromValue flattens a parsed document into ordered records.
func recordsFromValue(v content.Value) []content.Record {
	switch v.Kind() {
	case content.KindObject:
		return []content.Record{content.Record(v.Members())}
	case content.KindArray:
		records := make([]content.Record, 0, len(v.Items()))
		for _, item := range v.Items() {
			if item.Kind() == content.KindObject {
				records = append(records, content.Record(item.Members()))
			} else {
				records = append(records, content.Record{{Key: "value", Value: item}})
			}
		}
		return records
	default:
		return []content.Record{{{Key: "value", Value: v}}}
	}
}

// ReadCSV reads the file as delimiter-separated values with the first row
// as header. maxRows < 0 means unlimited; otherwise the first maxRows data
// rows are kept and the cut is recorded as a Truncation fact, never as an
// error. The remainder is still parsed so inconsistent rows are caught
// even past the cut.
func (r *Reader) ReadCSV(path string, delimiter rune, maxRows int) (content.Parsed, error) {
	ref, err := r.Resolve(path, content.FormatCSV)
	if err != nil {
		return content.Parsed{}, err
	}

	data, err := r.readAll(ref)
	if err != nil {
		return content.Parsed{}, err
	}
	if !utf8.Valid(data) {
		return content.Parsed{}, errs.New(errs.KindEncoding, "file is not valid UTF-8: %s", ref.Path)
	}

	if delimiter == 0 {
		delimiter = ','
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	// FieldsPerRecord 0: every row must match the header's column count.
	cr.FieldsPerRecord = 0

	rows, err := cr.ReadAll()
	if err != nil {
		return content.Parsed{}, errs.Wrap(errs.KindMalformedData, err, "parsing %s", ref.Path)
	}

	table := &content.Table{}
	var truncation *content.Truncation

	if len(rows) > 0 {
		table.Header = rows[0]
		body := rows[1:]
		if maxRows >= 0 && len(body) > maxRows {
			truncation = &content.Truncation{OmittedRows: len(body) - maxRows}
			body = body[:maxRows]
		}
		table.Rows = body
	}

	r.logger.Debug("Read CSV file", "path", ref.Path, "rows", len(table.Rows), "truncated", truncation != nil)

	return content.Parsed{
		FileName:   ref.Name,
		Ext:        ref.Ext,
		Format:     content.FormatCSV,
		Size:       len(data),
		Table:      table,
		Truncation: truncation,
	}, nil
}

// ReadAuto dispatches on the format inferred from the file extension.
// CSV reads use the default delimiter and no row bound.
func (r *Reader) ReadAuto(path string) (content.Parsed, error) {
	ref, err := r.Resolve(path, "")
	if err != nil {
		return content.Parsed{}, err
	}

	switch ref.Format {
	case content.FormatJSON:
		return r.ReadJSON(path)
	case content.FormatCSV:
		return r.ReadCSV(path, ',', -1)
	default:
		return r.ReadText(path)
	}
}
