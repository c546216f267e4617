// Package scanner finds input images for batch runs.
package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Source is a discovered image file.
type Source struct {
	// AbsPath is the path on disk.
	AbsPath string
	// RelPath is relative to the scanned directory, with forward slashes.
	RelPath string
	// Key is RelPath without its extension.
	Key string
	// Format is inferred from the extension; content is sniffed later.
	Format format.Format
	Size   int64
}

// Scan walks dir and returns every file whose suffix names a known
// format, sorted by key. Hidden directories are skipped.
func Scan(dir string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		f := format.FromPath(path)
		if f == format.Unknown {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: rel,
			Key:     strings.TrimSuffix(rel, filepath.Ext(rel)),
			Format:  f,
			Size:    info.Size(),
		})
		return nil
	})

	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources, err
}
