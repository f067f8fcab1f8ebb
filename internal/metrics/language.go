/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package metrics

import (
	"path/filepath"
	"strings"
)

// Language is the closed set of languages the analyzer understands.
// Anything else maps to LangUnknown and triggers no scanning.
type Language int

const (
	LangUnknown Language = iota
	LangPython
	LangJavaScript
	LangTypeScript
	LangJSX
)

// String returns the canonical lowercase tag for the language.
func (l Language) String() string {
	switch l {
	case LangPython:
		return "python"
	case LangJavaScript:
		return "javascript"
	case LangTypeScript:
		return "typescript"
	case LangJSX:
		return "jsx"
	default:
		return "unknown"
	}
}

// MarshalText makes Language render as its tag in JSON reports.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a language tag; unrecognized tags become
// LangUnknown rather than an error.
func (l *Language) UnmarshalText(text []byte) error {
	*l = ParseLanguage(string(text))
	return nil
}

// ParseLanguage maps a language tag to its Language value.
// Unrecognized tags map to LangUnknown; callers treat that as "no rules apply".
func ParseLanguage(tag string) Language {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "python":
		return LangPython
	case "javascript":
		return LangJavaScript
	case "typescript":
		return LangTypeScript
	case "jsx":
		return LangJSX
	default:
		return LangUnknown
	}
}

// DetectLanguage infers the language from a file path extension.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return LangPython
	case ".js":
		return LangJavaScript
	case ".ts", ".tsx":
		return LangTypeScript
	case ".jsx":
		return LangJSX
	default:
		return LangUnknown
	}
}
