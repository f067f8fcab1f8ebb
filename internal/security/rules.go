/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package security

import (
	"regexp"

	"github.com/fulmenhq/codelyzer/internal/metrics"
)

// ruleCategory partitions the catalog by language family. Python has
// its own rule set; the JS-like languages share one.
type ruleCategory int

const (
	categoryNone ruleCategory = iota
	categoryPython
	categoryJSLike
)

// categoryFor maps a language to its rule category.
func categoryFor(lang metrics.Language) ruleCategory {
	switch lang {
	case metrics.LangPython:
		return categoryPython
	case metrics.LangJavaScript, metrics.LangTypeScript, metrics.LangJSX:
		return categoryJSLike
	default:
		return categoryNone
	}
}

// Rule describes one detectable construct. Rules are data: the scanner
// evaluates every rule in catalog order with no per-rule control flow.
//
// Pattern is matched non-overlapping, left to right. When Suppress is
// set and matches the matched text, the match is discarded; this
// replaces lookahead-style exclusions so patterns stay within RE2's
// linear-time subset.
type Rule struct {
	Type     string
	Level    metrics.SecurityLevel
	Pattern  *regexp.Regexp
	Suppress *regexp.Regexp
	// Message is a fmt template taking the resolved line number.
	Message string
}

// suppressEnvLookup discards secret matches that read the value from
// environment configuration rather than embedding a literal.
var suppressEnvLookup = regexp.MustCompile(`os\.environ|process\.env`)

// secretRules flags credential-like assignments to string literals.
// Shared by the Python and JS-like catalogs.
var secretRules = []Rule{
	{
		Type:     "hardcoded_secret",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`(?i)password\s*=\s*['"][^'"]+['"]`),
		Suppress: suppressEnvLookup,
		Message:  "Possible hardcoded secret at line %d",
	},
	{
		Type:     "hardcoded_secret",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`(?i)api[_]?key\s*=\s*['"][^'"]+['"]`),
		Suppress: suppressEnvLookup,
		Message:  "Possible hardcoded secret at line %d",
	},
	{
		Type:     "hardcoded_secret",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`(?i)secret\s*=\s*['"][^'"]+['"]`),
		Suppress: suppressEnvLookup,
		Message:  "Possible hardcoded secret at line %d",
	},
	{
		Type:     "hardcoded_secret",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`(?i)token\s*=\s*['"][^'"]+['"]`),
		Suppress: suppressEnvLookup,
		Message:  "Possible hardcoded secret at line %d",
	},
}

// pythonRules covers shell invocation, SQL construction and
// deserialization risks specific to Python.
var pythonRules = concatRules([]Rule{
	{
		Type:     "os_command_injection",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`os\.system\([^)]*\)`),
		Suppress: regexp.MustCompile(`^os\.system\(['"]\w+['"]`),
		Message:  "Possible command injection at line %d",
	},
	{
		Type:     "os_command_injection",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`subprocess\.call\([^)]*\)`),
		Suppress: regexp.MustCompile(`^subprocess\.call\(['"]\w+['"]`),
		Message:  "Possible command injection at line %d",
	},
	{
		Type:     "os_command_injection",
		Level:    metrics.LevelHighRisk,
		Pattern:  regexp.MustCompile(`subprocess\.Popen\([^)]*\)`),
		Suppress: regexp.MustCompile(`^subprocess\.Popen\(['"]\w+['"]`),
		Message:  "Possible command injection at line %d",
	},
	{
		Type:    "os_command_injection",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`eval\([^)]*\)`),
		Message: "Possible command injection at line %d",
	},
	{
		Type:    "sql_injection",
		Level:   metrics.LevelCritical,
		Pattern: regexp.MustCompile(`execute\([^,]*\+[^)]*\)`),
		Message: "Possible SQL injection at line %d",
	},
	{
		Type:    "sql_injection",
		Level:   metrics.LevelCritical,
		Pattern: regexp.MustCompile(`execute\([^,]*%[^)]*\)`),
		Message: "Possible SQL injection at line %d",
	},
	{
		Type:    "sql_injection",
		Level:   metrics.LevelCritical,
		Pattern: regexp.MustCompile(`execute\([^,]*f['"][^'"]*\{[^}]*\}[^'"]*['"]`),
		Message: "Possible SQL injection at line %d",
	},
	{
		Type:    "sql_injection",
		Level:   metrics.LevelCritical,
		Pattern: regexp.MustCompile(`cursor\.execute\([^,]*\+[^)]*\)`),
		Message: "Possible SQL injection at line %d",
	},
	{
		Type:    "insecure_deserialization",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`pickle\.loads\(`),
		Message: "Insecure deserialization at line %d",
	},
	{
		Type:    "insecure_deserialization",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`pickle\.load\(`),
		Message: "Insecure deserialization at line %d",
	},
	{
		// yaml.load without a Loader argument; yaml.safe_load is fine.
		Type:    "insecure_deserialization",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`yaml\.load\([^,)]*\)`),
		Message: "Insecure deserialization at line %d",
	},
	{
		Type:    "insecure_deserialization",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`marshal\.loads\(`),
		Message: "Insecure deserialization at line %d",
	},
}, secretRules)

// jsLikeRules covers dynamic evaluation and raw DOM writes shared by
// JavaScript, TypeScript and JSX.
var jsLikeRules = concatRules([]Rule{
	{
		Type:    "unsafe_eval",
		Level:   metrics.LevelHighRisk,
		Pattern: regexp.MustCompile(`eval\([^)]+\)`),
		Message: "Unsafe eval() usage at line %d",
	},
	{
		Type:    "document_write",
		Level:   metrics.LevelMediumRisk,
		Pattern: regexp.MustCompile(`document\.write\([^)]+\)`),
		Message: "Unsafe document.write() at line %d",
	},
	{
		Type:    "innerhtml",
		Level:   metrics.LevelMediumRisk,
		Pattern: regexp.MustCompile(`\.innerHTML\s*=\s*[^;]+`),
		Message: "Potentially unsafe innerHTML usage at line %d",
	},
}, secretRules)

func concatRules(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// builtinCatalog returns the built-in rule table keyed by category.
func builtinCatalog() map[ruleCategory][]Rule {
	return map[ruleCategory][]Rule{
		categoryPython: pythonRules,
		categoryJSLike: jsLikeRules,
	}
}
