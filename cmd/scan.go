/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fulmenhq/codelyzer/internal/engine"
	"github.com/fulmenhq/codelyzer/internal/metrics"
	"github.com/fulmenhq/codelyzer/internal/security"
	cfgpkg "github.com/fulmenhq/codelyzer/pkg/config"
	"github.com/fulmenhq/codelyzer/pkg/exitcode"
	"github.com/fulmenhq/codelyzer/pkg/logger"
	"github.com/fulmenhq/codelyzer/pkg/safeio"
	"github.com/spf13/cobra"
)

// scanCmd runs the security scan against a target tree or file.
var scanCmd = &cobra.Command{
	Use:   "scan [target]",
	Short: "Scan sources for security-sensitive constructs",
	Long: `Scan Python and JavaScript/TypeScript sources under the target
(default: current directory) and report vulnerabilities with per-file
security scores and project-level statistics.

Exit code 3 signals findings at or above the --fail-on severity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanFormat             string
	scanFailOn             string
	scanOutput             string
	scanExclude            []string
	scanNoIgnore           bool
	scanConcurrency        int
	scanConcurrencyPercent int
	scanRulesFile          string
)

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "Output format (concise, markdown, json, html, both)")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "Fail if findings at or above severity (critical, high, medium, low, never)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output file (default: stdout)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Glob patterns to exclude (relative to target)")
	scanCmd.Flags().BoolVar(&scanNoIgnore, "no-ignore", false, "Disable .gitignore/.codelyzerignore filtering")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "Explicit worker count (default derived from CPU%)")
	scanCmd.Flags().IntVar(&scanConcurrencyPercent, "concurrency-percent", 0, "Percent of CPU cores for workers (1-100), used when --concurrency is 0")
	scanCmd.Flags().StringVar(&scanRulesFile, "rules", "", "Custom rules file (YAML)")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return fmt.Errorf("target does not exist: %s", target)
	}

	cfg, err := cfgpkg.LoadConfig(target)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	outFmt, err := engine.ParseOutputFormat(cfg.Scan.Format)
	if err != nil {
		return err
	}

	// Keep machine-readable output clean of log lines
	if outFmt == engine.FormatJSON {
		logger.SetOutput(io.Discard)
	}

	failLevel, failEnabled, err := parseFailOn(cfg.Scan.FailOn)
	if err != nil {
		return err
	}

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	report, err := engine.New(analyzer).Run(cmd.Context(), target, engine.Config{
		ExcludePatterns:    cfg.Scan.Exclude,
		NoIgnore:           cfg.Scan.NoIgnore,
		Concurrency:        cfg.Scan.Concurrency,
		ConcurrencyPercent: cfg.Scan.ConcurrencyPercent,
	})
	if err != nil {
		return err
	}

	formatter := engine.NewFormatter(outFmt)
	if scanOutput != "" {
		path, err := safeio.CleanUserPath(scanOutput)
		if err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
		rendered, err := formatter.FormatReport(report)
		if err != nil {
			return err
		}
		if err := safeio.WriteFilePreservePerms(path, []byte(rendered)); err != nil {
			return fmt.Errorf("cannot write output file: %w", err)
		}
	} else if err := formatter.WriteReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if failEnabled && hasFindingsAtOrAbove(report, failLevel) {
		logger.Error(fmt.Sprintf("Findings at or above fail-on severity (%s)", cfg.Scan.FailOn))
		os.Exit(exitcode.SeverityThreshold)
	}
	return nil
}

// applyFlagOverrides lets explicit flags win over config file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *cfgpkg.Config) {
	if cmd.Flags().Changed("format") {
		cfg.Scan.Format = scanFormat
	}
	if cmd.Flags().Changed("fail-on") {
		cfg.Scan.FailOn = scanFailOn
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Scan.Exclude = scanExclude
	}
	if cmd.Flags().Changed("no-ignore") {
		cfg.Scan.NoIgnore = scanNoIgnore
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Scan.Concurrency = scanConcurrency
	}
	if cmd.Flags().Changed("concurrency-percent") {
		cfg.Scan.ConcurrencyPercent = scanConcurrencyPercent
	}
	if cmd.Flags().Changed("rules") {
		cfg.Security.RulesFile = scanRulesFile
	}
}

// buildAnalyzer constructs the analyzer, merging custom rules when
// configured. A broken rules file aborts startup.
func buildAnalyzer(cfg cfgpkg.Config) (*security.Analyzer, error) {
	if cfg.Security.RulesFile == "" {
		return security.NewAnalyzer(), nil
	}
	rules, err := security.LoadRulesFile(cfg.Security.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("custom rules: %w", err)
	}
	logger.Info(fmt.Sprintf("Loaded %d custom rule(s)", len(rules)), logger.String("file", cfg.Security.RulesFile))
	return security.NewAnalyzerWithRules(rules), nil
}

// parseFailOn maps the fail-on label to a severity level. "never"
// disables the gate.
func parseFailOn(label string) (metrics.SecurityLevel, bool, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "critical":
		return metrics.LevelCritical, true, nil
	case "high":
		return metrics.LevelHighRisk, true, nil
	case "medium":
		return metrics.LevelMediumRisk, true, nil
	case "low":
		return metrics.LevelLowRisk, true, nil
	case "never", "":
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("invalid fail-on severity: %s", label)
	}
}

// hasFindingsAtOrAbove reports whether any recorded vulnerability is at
// least as severe as the threshold. Levels order most-severe first.
func hasFindingsAtOrAbove(report *engine.ScanReport, threshold metrics.SecurityLevel) bool {
	for _, fm := range report.Files {
		for _, v := range fm.Security.Vulnerabilities {
			if v.Level <= threshold {
				return true
			}
		}
	}
	return false
}
