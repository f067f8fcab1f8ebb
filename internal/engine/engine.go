/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/fulmenhq/codelyzer/internal/gitctx"
	"github.com/fulmenhq/codelyzer/internal/metrics"
	"github.com/fulmenhq/codelyzer/internal/security"
	"github.com/fulmenhq/codelyzer/pkg/buildinfo"
	"github.com/fulmenhq/codelyzer/pkg/logger"
	"github.com/fulmenhq/codelyzer/pkg/safeio"
	"golang.org/x/sync/errgroup"
)

// Config controls a scan run.
type Config struct {
	// ExcludePatterns are doublestar globs matched against paths
	// relative to the target.
	ExcludePatterns []string
	// NoIgnore disables .gitignore/.codelyzerignore filtering.
	NoIgnore bool
	// Concurrency is the explicit worker count. When 0,
	// ConcurrencyPercent determines workers as a percentage of CPU
	// cores (values <=0 default to 50).
	Concurrency        int
	ConcurrencyPercent int
}

// DefaultConfig returns the default scan configuration.
func DefaultConfig() Config {
	return Config{
		ExcludePatterns:    []string{},
		NoIgnore:           false,
		Concurrency:        0,
		ConcurrencyPercent: 50,
	}
}

// ReportMetadata contains metadata about the scan run.
type ReportMetadata struct {
	GeneratedAt   time.Time             `json:"generated_at"`
	Tool          string                `json:"tool"`
	Version       string                `json:"version"`
	Target        string                `json:"target"`
	ExecutionTime time.Duration         `json:"execution_time"`
	Project       *ProjectInfo          `json:"project,omitempty"`
	ChangeContext *gitctx.ChangeContext `json:"change_context,omitempty"`
}

// ReportSummary provides high-level scan statistics.
type ReportSummary struct {
	FilesScanned         int            `json:"files_scanned"`
	TotalVulnerabilities int            `json:"total_vulnerabilities"`
	CriticalCount        int            `json:"critical_count"`
	AverageScore         float64        `json:"average_score"`
	SeverityCounts       map[string]int `json:"severity_counts"`
}

// ScanReport is the complete result of one scan run.
type ScanReport struct {
	Metadata   ReportMetadata          `json:"metadata"`
	Summary    ReportSummary           `json:"summary"`
	Files      []*metrics.FileMetrics  `json:"files"`
	Security   metrics.ProjectSecurity `json:"security"`
	TypeCounts []metrics.TypeCount     `json:"type_counts"`
}

// Engine orchestrates discovery, per-file scanning and project
// aggregation.
type Engine struct {
	analyzer *security.Analyzer
}

// New creates a scan engine around the given analyzer.
func New(analyzer *security.Analyzer) *Engine {
	return &Engine{analyzer: analyzer}
}

// Run scans the target (a directory tree or a single file) and returns
// the full report. Per-file scans are independent and run on a bounded
// worker pool; aggregation happens strictly after every scan has
// completed.
func (e *Engine) Run(ctx context.Context, target string, cfg Config) (*ScanReport, error) {
	start := time.Now()

	sources, err := discoverFiles(target, cfg)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}

	changeCtx, modified := gitctx.Collect(target)

	workers := resolveWorkers(cfg)
	logger.Info(fmt.Sprintf("Scanning %d file(s) with %d worker(s)", len(sources), workers),
		logger.String("target", target))

	// Each worker writes only its own slot, so result order stays
	// deterministic without locking.
	results := make([]*metrics.FileMetrics, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := safeio.ReadFileContained(target, src.Abs)
			if err != nil {
				logger.Warn("Skipping unreadable file", logger.String("file", src.Path), logger.Err(err))
				return nil
			}
			fm := metrics.NewFileMetrics(src.Path, src.Language)
			e.analyzer.AnalyzeFile(fm, string(content), nil)
			results[i] = fm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]*metrics.FileMetrics, 0, len(results))
	for _, fm := range results {
		if fm != nil {
			files = append(files, fm)
		}
	}

	annotateChangeRelated(files, modified)

	// Aggregation runs only after the join barrier above.
	project := e.analyzer.AnalyzeProject(files)

	report := &ScanReport{
		Metadata: ReportMetadata{
			GeneratedAt:   time.Now(),
			Tool:          "codelyzer",
			Version:       buildinfo.BinaryVersion,
			Target:        target,
			ExecutionTime: time.Since(start),
			Project:       detectProjectInfo(target),
			ChangeContext: changeCtx,
		},
		Summary:    buildSummary(files, project),
		Files:      files,
		Security:   project,
		TypeCounts: project.TypeCounts(),
	}

	logger.Info(fmt.Sprintf("Scan completed in %v: %d vulnerabilities across %d type(s)",
		report.Metadata.ExecutionTime.Round(time.Millisecond),
		project.TotalVulnerabilities(), len(project.VulnerabilityTypes)))
	for _, tc := range report.TypeCounts {
		logger.Debug(fmt.Sprintf("Vulnerability type: %s - %d occurrence(s)", tc.Type, tc.Count))
	}

	return report, nil
}

// resolveWorkers determines the worker count from config and CPU cores.
func resolveWorkers(cfg Config) int {
	if cfg.Concurrency > 0 {
		return cfg.Concurrency
	}
	percent := cfg.ConcurrencyPercent
	if percent <= 0 {
		percent = 50
	}
	workers := (runtime.NumCPU() * percent) / 100
	if workers < 1 {
		workers = 1
	}
	return workers
}

// annotateChangeRelated marks vulnerabilities in files that the git
// change-set reports as modified. Best-effort: paths are matched as
// target-relative slash paths.
func annotateChangeRelated(files []*metrics.FileMetrics, modified map[string]struct{}) {
	if len(modified) == 0 {
		return
	}
	for _, fm := range files {
		if _, ok := modified[fm.FilePath]; !ok {
			continue
		}
		for i := range fm.Security.Vulnerabilities {
			fm.Security.Vulnerabilities[i].ChangeRelated = true
		}
	}
}

func buildSummary(files []*metrics.FileMetrics, project metrics.ProjectSecurity) ReportSummary {
	summary := ReportSummary{
		FilesScanned:         len(files),
		TotalVulnerabilities: project.TotalVulnerabilities(),
		AverageScore:         100.0,
		SeverityCounts:       make(map[string]int),
	}
	if len(files) == 0 {
		return summary
	}
	scoreSum := 0.0
	for _, fm := range files {
		scoreSum += fm.Security.SecurityScore
		for _, v := range fm.Security.Vulnerabilities {
			summary.SeverityCounts[v.Severity]++
			if v.Level == metrics.LevelCritical {
				summary.CriticalCount++
			}
		}
	}
	summary.AverageScore = scoreSum / float64(len(files))
	return summary
}
