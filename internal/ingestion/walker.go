package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Dataset file extensions.
var datasetExtensions = map[string]bool{
	".json":  true,
	".jsonl": true,
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	".nlvr/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	".DS_Store",
}

// WalkDataset returns every dataset file under root in lexical order. A
// root that is itself a file is returned as is, whatever its extension.
func WalkDataset(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	matcher, err := loadIgnoreMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("loading .gitignore: %w", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(path, root, matcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldLoadFile(path, root, matcher) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// loadIgnoreMatcher combines the default patterns with the root .gitignore.
func loadIgnoreMatcher(root string) (gitignore.Matcher, error) {
	patterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns))
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	return gitignore.NewMatcher(patterns), nil
}

// isDatasetFile checks the file extension.
func isDatasetFile(name string) bool {
	return datasetExtensions[strings.ToLower(filepath.Ext(name))]
}

// shouldSkipDir checks if a directory is ignored.
func shouldSkipDir(path, root string, matcher gitignore.Matcher) bool {
	if filepath.Base(path) == ".git" {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.Match(splitPath(rel), true)
}

// shouldLoadFile checks if a file is a dataset file that is not ignored.
func shouldLoadFile(path, root string, matcher gitignore.Matcher) bool {
	if !isDatasetFile(path) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return !matcher.Match(splitPath(rel), false)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
