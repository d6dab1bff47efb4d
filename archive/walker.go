// Package archive exposes zip archives to the conversion pipeline as a flat
// sequence of file entries.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// WalkFunc is the type of the function called for each file in the archive
// visited by Walk. The archive argument contains the path to the archive
// passed to Walk, the file argument is the zip.File structure for an entry
// which satisfies the match condition. If an error is returned, processing
// stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every file entry in the archive whose name starts
// with pattern, so a directory path inside the archive selects its subtree
// and an empty pattern selects everything. Pattern separators are normalized
// to the forward slashes zip entries use. An entry with a path traversal
// component ("..") or an absolute path stops the walk with an error to
// prevent Zip Slip from placing output outside the destination.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	pattern = filepath.ToSlash(pattern)

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
