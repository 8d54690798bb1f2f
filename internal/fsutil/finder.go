// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindFiles resolves each path to the files with the given extension: a file
// path is taken as is, a directory is searched recursively. The result is
// sorted and free of duplicates.
func FindFiles(paths []string, extension string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("path %q does not exist", p)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}

		found := []string{p}
		if info.IsDir() {
			found, err = FindFilesByExtension(p, extension)
			if err != nil {
				return nil, fmt.Errorf("searching %q: %w", p, err)
			}
		}
		for _, f := range found {
			f = filepath.Clean(f)
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// LatestModTime returns the most recent modification time among files, as
// Unix nanoseconds. Missing files are skipped.
func LatestModTime(files []string) int64 {
	var latest int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); t > latest {
			latest = t
		}
	}
	return latest
}
