// Package ignore provides gitignore-based file filtering using go-git
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher provides gitignore-based file filtering for scan discovery
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore sources:
// 1. built-in defaults for directories that never hold scannable sources
// 2. .gitignore and related git ignore files
// 3. .codelyzerignore at the scan root (repo overrides)
// 4. ~/.codelyzer/.codelyzerignore (user overrides)
func NewMatcher(root string) (*Matcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	fs := osfs.New(absRoot)

	var patterns []gitignore.Pattern

	defaults := []string{".git/**", "node_modules/**", "venv/**", ".venv/**", "__pycache__/**", "dist/**"}
	for _, p := range defaults {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	// ReadPatterns with nil reads .gitignore, global excludes, and .git/info/exclude
	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		patterns = append(patterns, gitPatterns...)
	}

	if repoPatterns, err := readIgnoreFile(filepath.Join(absRoot, ".codelyzerignore")); err == nil {
		for _, p := range repoPatterns {
			patterns = append(patterns, gitignore.ParsePattern(p, nil))
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userIgnorePath := filepath.Join(homeDir, ".codelyzer", ".codelyzerignore")
		if userPatterns, err := readIgnoreFile(userIgnorePath); err == nil {
			for _, p := range userPatterns {
				patterns = append(patterns, gitignore.ParsePattern(p, nil))
			}
		}
	}

	return &Matcher{
		root:    absRoot,
		matcher: gitignore.NewMatcher(patterns),
	}, nil
}

// readIgnoreFile reads patterns from a .codelyzerignore file. Only the
// known ignore file name is accepted.
func readIgnoreFile(path string) ([]string, error) {
	cleaned := filepath.Clean(path)
	if !strings.HasSuffix(cleaned, string(os.PathSeparator)+".codelyzerignore") {
		return nil, fmt.Errorf("disallowed ignore file path: %s", cleaned)
	}
	content, err := os.ReadFile(cleaned) // #nosec G304 -- path cleaned and allowlisted
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored checks if a file path should be excluded from scanning
func (m *Matcher) IsIgnored(path string) bool {
	return m.matcher.Match(m.split(path), false)
}

// IsIgnoredDir checks if a directory should be skipped during traversal
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.matcher.Match(m.split(path), true)
}

// split converts a path into slash components relative to the scan root
func (m *Matcher) split(path string) []string {
	rel := path
	if abs, err := filepath.Abs(path); err == nil {
		if r, err := filepath.Rel(m.root, abs); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return nil
	}

	parts := strings.Split(strings.TrimPrefix(rel, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
