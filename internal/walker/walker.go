// Package walker discovers reviewable source files under a directory tree.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// maxFileSize is the largest file we'll consider for review (1 MB).
const maxFileSize = 1 << 20

// defaultIgnores are used when no .loupeignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".loupe",
	"dist",
	"build",
	"testdata",
}

// Walk traverses the directory tree rooted at root and sends discovered
// source files on the returned channel. It only emits files whose extension
// is in allowedExts, and skips directories matching .loupeignore patterns.
// The error channel delivers at most one error after the file channel
// closes.
func Walk(root string, allowedExts map[string]bool) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors, keep walking
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				rel, _ := filepath.Rel(absRoot, path)
				if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			// Skip symlinks.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			ext := strings.TrimPrefix(filepath.Ext(path), ".")
			if !allowedExts[ext] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			// Skip large or empty files.
			if info.Size() > maxFileSize || info.Size() == 0 {
				return nil
			}

			relPath, _ := filepath.Rel(absRoot, path)
			files <- FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Size:    info.Size(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// loadIgnorePatterns reads .loupeignore from the reviewed root. A missing
// file means the defaults apply; the walker never writes into the tree it
// reviews.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, ".loupeignore"))
	if err != nil {
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

// matchesIgnore checks if a directory name or relative path matches any ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
