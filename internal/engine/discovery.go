/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/codelyzer/internal/metrics"
	"github.com/fulmenhq/codelyzer/pkg/ignore"
	"github.com/fulmenhq/codelyzer/pkg/logger"
)

// sourceFile is one discovered candidate for scanning.
type sourceFile struct {
	// Path is relative to the scan target, slash-separated; it is the
	// identity used in reports.
	Path     string
	Abs      string
	Language metrics.Language
}

// discoverFiles walks the target and returns scannable sources in
// deterministic (path-sorted) order. Files whose extension maps to no
// known language are skipped, as are ignored and excluded paths.
func discoverFiles(target string, cfg Config) ([]sourceFile, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("cannot stat target: %w", err)
	}

	if !info.IsDir() {
		lang := metrics.DetectLanguage(target)
		if lang == metrics.LangUnknown {
			logger.Debug("Target file has no recognized language", logger.String("file", target))
			return nil, nil
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			abs = target
		}
		return []sourceFile{{Path: filepath.Base(target), Abs: abs, Language: lang}}, nil
	}

	var matcher *ignore.Matcher
	if !cfg.NoIgnore {
		if m, err := ignore.NewMatcher(target); err == nil {
			matcher = m
		} else {
			logger.Warn("Ignore patterns unavailable, scanning everything", logger.Err(err))
		}
	}

	var sources []sourceFile
	walkErr := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if matcher != nil && path != target && matcher.IsIgnoredDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		lang := metrics.DetectLanguage(path)
		if lang == metrics.LangUnknown {
			return nil
		}
		if matcher != nil && matcher.IsIgnored(path) {
			return nil
		}

		rel, err := filepath.Rel(target, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if excluded(rel, cfg.ExcludePatterns) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		sources = append(sources, sourceFile{Path: rel, Abs: abs, Language: lang})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, nil
}

// excluded reports whether the relative path matches any exclude glob.
// Invalid globs are treated as non-matching rather than fatal.
func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
