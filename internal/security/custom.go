/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package security

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fulmenhq/codelyzer/internal/metrics"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/security-rules-v1.0.0.json
var rulesSchemaJSON string

// RuleSpec is the on-disk form of a custom detection rule.
type RuleSpec struct {
	Type      string   `yaml:"type" json:"type"`
	Languages []string `yaml:"languages" json:"languages"`
	Pattern   string   `yaml:"pattern" json:"pattern"`
	Suppress  string   `yaml:"suppress,omitempty" json:"suppress,omitempty"`
	Severity  string   `yaml:"severity" json:"severity"`
	Message   string   `yaml:"message,omitempty" json:"message,omitempty"`
}

// RulesFile is the top-level structure of a custom rules document.
type RulesFile struct {
	Version string     `yaml:"version,omitempty" json:"version,omitempty"`
	Rules   []RuleSpec `yaml:"rules" json:"rules"`
}

// CompiledRule is a custom rule bound to the catalog categories it
// applies to.
type CompiledRule struct {
	Rule       Rule
	Categories []ruleCategory
}

// LoadRulesFile reads, validates and compiles a custom rules document.
// Any schema violation or pattern that fails to compile is returned as
// an error: rule-file defects are a startup condition, never a
// scan-time one.
func LoadRulesFile(path string) ([]CompiledRule, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from explicit user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules validates and compiles custom rules from YAML content.
func ParseRules(data []byte) ([]CompiledRule, error) {
	var doc RulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := validateRules(doc); err != nil {
		return nil, err
	}

	compiled := make([]CompiledRule, 0, len(doc.Rules))
	for i, spec := range doc.Rules {
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): invalid pattern: %w", i, spec.Type, err)
		}
		var suppress *regexp.Regexp
		if spec.Suppress != "" {
			suppress, err = regexp.Compile(spec.Suppress)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid suppress pattern: %w", i, spec.Type, err)
			}
		}

		cats := make(map[ruleCategory]struct{}, 2)
		for _, tag := range spec.Languages {
			if cat := categoryFor(metrics.ParseLanguage(tag)); cat != categoryNone {
				cats[cat] = struct{}{}
			}
		}
		var categories []ruleCategory
		for cat := range cats {
			categories = append(categories, cat)
		}

		compiled = append(compiled, CompiledRule{
			Rule: Rule{
				Type:     spec.Type,
				Level:    levelFromLabel(spec.Severity),
				Pattern:  pattern,
				Suppress: suppress,
				Message:  messageTemplate(spec),
			},
			Categories: categories,
		})
	}
	return compiled, nil
}

// validateRules checks the document against the embedded JSON schema.
func validateRules(doc RulesFile) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode rules for validation: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(rulesSchemaJSON),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return fmt.Errorf("rules schema validation failed: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid rules file: %s", strings.Join(problems, "; "))
	}
	return nil
}

// levelFromLabel maps a severity label back to its level. The schema
// restricts labels to the known set; anything else lands on medium.
func levelFromLabel(label string) metrics.SecurityLevel {
	switch strings.ToLower(label) {
	case "critical":
		return metrics.LevelCritical
	case "high":
		return metrics.LevelHighRisk
	case "low":
		return metrics.LevelLowRisk
	default:
		return metrics.LevelMediumRisk
	}
}

// messageTemplate normalizes a rule message so it always carries the
// line-number placeholder the scanner fills in. A message without %d is
// treated as plain text: stray percents are escaped so they survive
// formatting, then the placeholder is appended.
func messageTemplate(spec RuleSpec) string {
	msg := spec.Message
	if msg == "" {
		msg = fmt.Sprintf("Possible %s", strings.ReplaceAll(spec.Type, "_", " "))
	}
	if !strings.Contains(msg, "%d") {
		msg = strings.ReplaceAll(msg, "%", "%%") + " at line %d"
	}
	return msg
}
