package reader

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"notedrop/internal/errs"
)

// FileEntry is one file discovered in a directory listing.
type FileEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Listing is the result of a directory listing.
type Listing struct {
	Directory  string      `json:"directory"`
	Files      []FileEntry `json:"files"`
	TotalCount int         `json:"total_count"`
}

// ListDir lists the regular files directly inside a directory, optionally
// filtered by extension (case-insensitive, with or without the leading
// dot). The directory must sit inside the allowed roots. Results follow
// os.ReadDir's name ordering, so identical input yields identical output.
func (r *Reader) ListDir(path string, extensions []string) (Listing, error) {
	ref, err := r.Resolve(path, "")
	if err != nil {
		return Listing{}, err
	}

	info, err := os.Stat(ref.Path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return Listing{}, errs.Wrap(errs.KindNotFound, err, "directory not found: %s", ref.Path)
		case errors.Is(err, fs.ErrPermission):
			return Listing{}, errs.Wrap(errs.KindPermission, err, "permission denied: %s", ref.Path)
		default:
			return Listing{}, errs.Wrap(errs.KindValidation, err, "cannot access: %s", ref.Path)
		}
	}
	if !info.IsDir() {
		return Listing{}, errs.New(errs.KindValidation, "path is not a directory: %s", ref.Path)
	}

	entries, err := os.ReadDir(ref.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Listing{}, errs.Wrap(errs.KindPermission, err, "permission denied: %s", ref.Path)
		}
		return Listing{}, errs.Wrap(errs.KindValidation, err, "cannot read directory: %s", ref.Path)
	}

	filter := normalizeExtensions(extensions)

	files := []FileEntry{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filter != nil && !filter[lowerExt(entry.Name())] {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info; skip it.
			continue
		}
		files = append(files, FileEntry{
			Name: entry.Name(),
			Path: ref.Path + string(os.PathSeparator) + entry.Name(),
			Size: fi.Size(),
		})
	}

	r.logger.Debug("Listed directory", "path", ref.Path, "files", len(files))

	return Listing{
		Directory:  ref.Path,
		Files:      files,
		TotalCount: len(files),
	}, nil
}

func normalizeExtensions(extensions []string) map[string]bool {
	if len(extensions) == 0 {
		return nil
	}
	filter := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		filter[ext] = true
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

func lowerExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}
