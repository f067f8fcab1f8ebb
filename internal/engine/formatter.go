/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	runewidth "github.com/mattn/go-runewidth"
)

// OutputFormat represents the format for scan report output
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatHTML     OutputFormat = "html"
	FormatBoth     OutputFormat = "both"
	// Concise is a short, colorized summary ideal for hook logs
	FormatConcise OutputFormat = "concise"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatBoth:
		return FormatBoth, nil
	case FormatConcise:
		return FormatConcise, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter renders scan reports.
type Formatter struct {
	format OutputFormat
}

// NewFormatter creates a report formatter for the given format.
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// FormatReport formats a scan report according to the configured format.
func (f *Formatter) FormatReport(report *ScanReport) (string, error) {
	switch f.format {
	case FormatConcise:
		return f.formatConcise(report), nil
	case FormatMarkdown:
		return f.formatMarkdown(report), nil
	case FormatJSON:
		return f.formatJSON(report)
	case FormatHTML:
		return f.formatHTML(report)
	case FormatBoth:
		markdown := f.formatMarkdown(report)
		jsonStr, err := f.formatJSON(report)
		if err != nil {
			return "", err
		}
		return markdown + "\n\n---\n\n" + jsonStr, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

// WriteReport writes a formatted report to the given writer.
func (f *Formatter) WriteReport(w io.Writer, report *ScanReport) error {
	output, err := f.FormatReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(output))
	return err
}

// formatConcise prints a short, colorized summary suitable for hook logs.
func (f *Formatter) formatConcise(report *ScanReport) string {
	color := func(code string, s string) string {
		if os.Getenv("NO_COLOR") != "" {
			return s
		}
		return "\x1b[" + code + "m" + s + "\x1b[0m"
	}
	bold := func(s string) string { return color("1", s) }
	green := func(s string) string { return color("32", s) }
	yellow := func(s string) string { return color("33", s) }
	red := func(s string) string { return color("31", s) }

	var sb strings.Builder

	score := report.Summary.AverageScore
	scoreStr := fmt.Sprintf("%.1f", score)
	if score >= 90 {
		scoreStr = green(scoreStr)
	} else if score >= 75 {
		scoreStr = yellow(scoreStr)
	} else {
		scoreStr = red(scoreStr)
	}
	fmt.Fprintf(&sb, "%s score=%s | files: %d | vulnerabilities: %d | time: %v\n",
		bold("Security scan"), scoreStr, report.Summary.FilesScanned,
		report.Summary.TotalVulnerabilities, report.Metadata.ExecutionTime.Round(time.Millisecond))

	for _, tc := range report.TypeCounts {
		fmt.Fprintf(&sb, " - %s: %s\n", tc.Type, yellow(fmt.Sprintf("%d occurrence(s)", tc.Count)))
	}

	if report.Summary.TotalVulnerabilities == 0 {
		sb.WriteString(green("No security issues detected"))
	} else {
		sb.WriteString(yellow("Security issues detected - see full report for details"))
	}
	return sb.String()
}

// formatMarkdown renders a full markdown report.
func (f *Formatter) formatMarkdown(report *ScanReport) string {
	var sb strings.Builder

	sb.WriteString("# Codelyzer Security Report\n\n")
	fmt.Fprintf(&sb, "**Generated:** %s\n", report.Metadata.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Target:** %s\n", report.Metadata.Target)
	if p := report.Metadata.Project; p != nil {
		fmt.Fprintf(&sb, "**Project:** %s", p.Name)
		if p.Version != "" {
			fmt.Fprintf(&sb, " v%s", p.Version)
		}
		fmt.Fprintf(&sb, " (%s)\n", p.Source)
	}
	fmt.Fprintf(&sb, "**Execution time:** %v\n\n", report.Metadata.ExecutionTime.Round(time.Millisecond))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Files scanned: %d\n", report.Summary.FilesScanned)
	fmt.Fprintf(&sb, "- Vulnerabilities: %d\n", report.Summary.TotalVulnerabilities)
	fmt.Fprintf(&sb, "- Critical: %d\n", report.Summary.CriticalCount)
	fmt.Fprintf(&sb, "- Average security score: %.1f\n\n", report.Summary.AverageScore)

	if len(report.TypeCounts) > 0 {
		sb.WriteString("## Vulnerability Types\n\n")
		sb.WriteString(renderTypeTable(report))
		sb.WriteString("\n")
	}

	wroteHeader := false
	for _, fm := range report.Files {
		if len(fm.Security.Vulnerabilities) == 0 {
			continue
		}
		if !wroteHeader {
			sb.WriteString("## Findings\n\n")
			wroteHeader = true
		}
		fmt.Fprintf(&sb, "### %s (score %.1f)\n\n", fm.FilePath, fm.Security.SecurityScore)
		for _, v := range fm.Security.Vulnerabilities {
			marker := ""
			if v.ChangeRelated {
				marker = " [modified]"
			}
			fmt.Fprintf(&sb, "- **%s** `%s` %d:%d — %s%s\n",
				v.Severity, v.Type, v.Location.Line, v.Location.Column, v.Message, marker)
		}
		sb.WriteString("\n")
	}

	if report.Summary.TotalVulnerabilities == 0 {
		sb.WriteString("No security issues detected.\n")
	}
	return sb.String()
}

// renderTypeTable builds the type/count table with cells padded to the
// display width of their column.
func renderTypeTable(report *ScanReport) string {
	typeWidth := runewidth.StringWidth("Type")
	for _, tc := range report.TypeCounts {
		if w := runewidth.StringWidth(tc.Type); w > typeWidth {
			typeWidth = w
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "| %s | Count |\n", pad("Type", typeWidth))
	fmt.Fprintf(&sb, "|%s|-------|\n", strings.Repeat("-", typeWidth+2))
	for _, tc := range report.TypeCounts {
		fmt.Fprintf(&sb, "| %s | %5d |\n", pad(tc.Type, typeWidth), tc.Count)
	}
	return sb.String()
}

func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// formatJSON renders the raw report structure.
func (f *Formatter) formatJSON(report *ScanReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}

// htmlTemplate is the handlebars template for HTML reports.
const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Codelyzer Security Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 10px; }
.critical { color: #b00020; font-weight: bold; }
.high { color: #d2691e; }
.medium { color: #b8860b; }
.low { color: #556b2f; }
</style>
</head>
<body>
<h1>Codelyzer Security Report</h1>
<p>Target: {{target}} | Files scanned: {{filesScanned}} | Average score: {{averageScore}}</p>
<h2>Vulnerability Types</h2>
<table>
<tr><th>Type</th><th>Count</th></tr>
{{#each typeCounts}}
<tr><td>{{type}}</td><td>{{count}}</td></tr>
{{/each}}
</table>
<h2>Findings</h2>
{{#each files}}
<h3>{{path}} (score {{score}})</h3>
<ul>
{{#each findings}}
<li class="{{severity}}">[{{severity}}] {{message}} ({{type}}, {{line}}:{{column}})</li>
{{/each}}
</ul>
{{/each}}
</body>
</html>
`

// formatHTML renders the report through the handlebars template.
func (f *Formatter) formatHTML(report *ScanReport) (string, error) {
	typeCounts := make([]map[string]interface{}, 0, len(report.TypeCounts))
	for _, tc := range report.TypeCounts {
		typeCounts = append(typeCounts, map[string]interface{}{
			"type":  tc.Type,
			"count": tc.Count,
		})
	}

	files := make([]map[string]interface{}, 0, len(report.Files))
	for _, fm := range report.Files {
		if len(fm.Security.Vulnerabilities) == 0 {
			continue
		}
		findings := make([]map[string]interface{}, 0, len(fm.Security.Vulnerabilities))
		for _, v := range fm.Security.Vulnerabilities {
			findings = append(findings, map[string]interface{}{
				"severity": v.Severity,
				"type":     v.Type,
				"message":  v.Message,
				"line":     v.Location.Line,
				"column":   v.Location.Column,
			})
		}
		files = append(files, map[string]interface{}{
			"path":     fm.FilePath,
			"score":    fmt.Sprintf("%.1f", fm.Security.SecurityScore),
			"findings": findings,
		})
	}

	ctx := map[string]interface{}{
		"target":       report.Metadata.Target,
		"filesScanned": report.Summary.FilesScanned,
		"averageScore": fmt.Sprintf("%.1f", report.Summary.AverageScore),
		"typeCounts":   typeCounts,
		"files":        files,
	}

	out, err := raymond.Render(htmlTemplate, ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	return out, nil
}
