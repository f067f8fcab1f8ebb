/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package metrics

import (
	"math"
	"sort"
)

// SecurityLevel represents the risk tier of a finding, ordered from
// most to least severe.
type SecurityLevel int

const (
	LevelCritical SecurityLevel = iota
	LevelHighRisk
	LevelMediumRisk
	LevelLowRisk
)

// Severity returns the lowercase severity label for the level.
func (l SecurityLevel) Severity() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelHighRisk:
		return "high"
	case LevelMediumRisk:
		return "medium"
	case LevelLowRisk:
		return "low"
	default:
		return "info"
	}
}

// Deduction returns the (negative) score adjustment applied when a
// vulnerability of this level is recorded.
func (l SecurityLevel) Deduction() float64 {
	switch l {
	case LevelCritical:
		return -25
	case LevelHighRisk:
		return -15
	case LevelMediumRisk:
		return -5
	case LevelLowRisk:
		return -1
	default:
		return 0
	}
}

// Location is the position of a match within file content.
// Line and Column are 1-based; Position is the 0-based absolute offset.
type Location struct {
	Line     int `json:"line"`
	Column   int `json:"column"`
	Position int `json:"position"`
}

// Vulnerability is a single recorded security finding.
type Vulnerability struct {
	Type          string        `json:"type"`
	Message       string        `json:"message"`
	Location      Location      `json:"location"`
	Level         SecurityLevel `json:"level"`
	Severity      string        `json:"severity"`
	ChangeRelated bool          `json:"change_related,omitempty"`
}

// FileSecurity holds the security findings and score for one file.
// Vulnerabilities grow monotonically during a scan pass; the score
// starts at 100 and only moves down, clamped at zero.
type FileSecurity struct {
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	SecurityScore   float64         `json:"security_score"`
}

// NewFileSecurity returns a fresh accumulator with a perfect score.
func NewFileSecurity() *FileSecurity {
	return &FileSecurity{SecurityScore: 100.0}
}

// Record appends a vulnerability and applies its score deduction in
// one step. Deductions are additive, so the resulting score depends
// only on the multiset of severities recorded, not their order.
func (fs *FileSecurity) Record(v Vulnerability) {
	fs.Vulnerabilities = append(fs.Vulnerabilities, v)
	fs.SecurityScore = math.Max(0.0, fs.SecurityScore+v.Level.Deduction())
}

// FileMetrics is the per-file analysis record.
type FileMetrics struct {
	FilePath string        `json:"file_path"`
	Language Language      `json:"language"`
	Security *FileSecurity `json:"security"`
}

// NewFileMetrics creates a file record with an initialized security accumulator.
func NewFileMetrics(path string, lang Language) *FileMetrics {
	return &FileMetrics{
		FilePath: path,
		Language: lang,
		Security: NewFileSecurity(),
	}
}

// ProjectSecurity aggregates vulnerability counts across a project.
type ProjectSecurity struct {
	VulnerabilityTypes map[string]int `json:"vulnerability_types"`
}

// TypeCount pairs a vulnerability type with its occurrence count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeCounts returns the aggregated counts ordered by descending
// count (ties broken by type name) for stable report rendering.
func (ps ProjectSecurity) TypeCounts() []TypeCount {
	out := make([]TypeCount, 0, len(ps.VulnerabilityTypes))
	for t, c := range ps.VulnerabilityTypes {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// TotalVulnerabilities sums the aggregated counts.
func (ps ProjectSecurity) TotalVulnerabilities() int {
	total := 0
	for _, c := range ps.VulnerabilityTypes {
		total += c
	}
	return total
}

// ProjectMetrics is the project-level analysis record.
type ProjectMetrics struct {
	Files    []*FileMetrics  `json:"files"`
	Security ProjectSecurity `json:"security"`
}
