/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package security

import (
	"fmt"

	"github.com/fulmenhq/codelyzer/internal/metrics"
	"github.com/fulmenhq/codelyzer/pkg/logger"
)

// Analyzer runs the rule catalog against file content. It holds no
// mutable state after construction, so one instance may be shared by
// any number of concurrent per-file scans.
type Analyzer struct {
	catalog map[ruleCategory][]Rule
}

// NewAnalyzer creates an analyzer with the built-in rule catalog.
func NewAnalyzer() *Analyzer {
	return &Analyzer{catalog: builtinCatalog()}
}

// NewAnalyzerWithRules creates an analyzer with the built-in catalog
// plus user-supplied rules. Extra rules are evaluated after the
// built-ins, in the order given.
func NewAnalyzerWithRules(extra []CompiledRule) *Analyzer {
	catalog := builtinCatalog()
	for _, cr := range extra {
		for _, cat := range cr.Categories {
			catalog[cat] = append(catalog[cat], cr.Rule)
		}
	}
	return &Analyzer{catalog: catalog}
}

// Scan analyzes content for the given language and returns a fresh
// result. It performs no I/O and never fails: empty content or a
// language with no rule set yields an empty result with a full score.
func (a *Analyzer) Scan(content string, lang metrics.Language) *metrics.FileSecurity {
	sec := metrics.NewFileSecurity()
	if content == "" {
		return sec
	}
	rules, ok := a.catalog[categoryFor(lang)]
	if !ok {
		return sec
	}
	for _, rule := range rules {
		for _, idx := range rule.Pattern.FindAllStringIndex(content, -1) {
			matched := content[idx[0]:idx[1]]
			if rule.Suppress != nil && rule.Suppress.MatchString(matched) {
				continue
			}
			loc := LocateOffset(content, idx[0])
			sec.Record(metrics.Vulnerability{
				Type:     rule.Type,
				Message:  fmt.Sprintf(rule.Message, loc.Line),
				Location: loc,
				Level:    rule.Level,
				Severity: rule.Level.Severity(),
			})
		}
	}
	return sec
}

// AnalyzeFile scans content and merges the findings into the file
// record's security metrics. astData is accepted for future
// syntax-aware rules; no current rule consults it, and behavior is
// identical with or without it.
//
// Callers invoke this exactly once per file per scan pass: re-running
// it against the same record double-counts matches.
func (a *Analyzer) AnalyzeFile(fm *metrics.FileMetrics, content string, astData any) {
	_ = astData // reserved
	if content == "" {
		logger.Debug("Skipping security analysis of empty file", logger.String("file", fm.FilePath))
		return
	}
	result := a.Scan(content, fm.Language)
	for _, v := range result.Vulnerabilities {
		fm.Security.Record(v)
	}
	if n := len(result.Vulnerabilities); n > 0 {
		logger.Debug(fmt.Sprintf("Security analysis found %d issue(s)", n),
			logger.String("file", fm.FilePath), logger.String("language", fm.Language.String()))
	}
}

// AnalyzeProject tallies vulnerability counts by type across all file
// records into a fresh mapping. The rebuild is stateless: calling it
// twice over the same input yields an identical result.
func (a *Analyzer) AnalyzeProject(files []*metrics.FileMetrics) metrics.ProjectSecurity {
	types := make(map[string]int)
	for _, fm := range files {
		if fm.Security == nil {
			continue
		}
		for _, v := range fm.Security.Vulnerabilities {
			t := v.Type
			if t == "" {
				t = "unknown"
			}
			types[t]++
		}
	}
	return metrics.ProjectSecurity{VulnerabilityTypes: types}
}
