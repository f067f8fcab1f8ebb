/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/fulmenhq/codelyzer/internal/engine"
	"github.com/fulmenhq/codelyzer/internal/metrics"
	cfgpkg "github.com/fulmenhq/codelyzer/pkg/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag values and their Changed markers persist on the shared scan
	// command between executions; reset so each test starts clean.
	scanCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})

	root := newRootCommand()
	registerSubcommands(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanCommandJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := writeFixture(t, map[string]string{
		"app.py": "password = \"s3cr3t\"\nos.system(user_input)\n",
	})

	out, err := runCommand(t, "scan", target, "--format", "json", "--fail-on", "never")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var report engine.ScanReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if report.Summary.FilesScanned != 1 || report.Summary.TotalVulnerabilities != 2 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.AverageScore != 70.0 {
		t.Errorf("average score = %v, expected 70.0", report.Summary.AverageScore)
	}
}

func TestScanCommandMarkdownToFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := writeFixture(t, map[string]string{
		"clean.py": "print('hello')\n",
	})
	outPath := filepath.Join(t.TempDir(), "report.md")

	_, err := runCommand(t, "scan", target, "--format", "markdown", "--fail-on", "never", "-o", outPath)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(data), "# Codelyzer Security Report") {
		t.Errorf("unexpected report content:\n%s", data)
	}
	if !strings.Contains(string(data), "No security issues detected.") {
		t.Errorf("clean tree should report no issues:\n%s", data)
	}
}

func TestScanCommandCustomRules(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := writeFixture(t, map[string]string{
		"app.py": "print(password)\n",
	})
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "rules:\n  - type: debug_print\n    languages: [python]\n    pattern: 'print\\(.*password.*\\)'\n    severity: low\n"
	if err := os.WriteFile(rulesPath, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "scan", target, "--format", "json", "--fail-on", "never", "--rules", rulesPath)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var report engine.ScanReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Security.VulnerabilityTypes["debug_print"] != 1 {
		t.Errorf("custom rule not applied: %v", report.Security.VulnerabilityTypes)
	}
}

func TestScanCommandBrokenRulesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := writeFixture(t, map[string]string{"app.py": "print('ok')\n"})
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("rules:\n  - type: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCommand(t, "scan", target, "--format", "json", "--fail-on", "never", "--rules", rulesPath)
	if err == nil {
		t.Fatal("expected startup error for broken rules file")
	}
}

func TestScanCommandMissingTarget(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := runCommand(t, "scan", filepath.Join(t.TempDir(), "absent"),
		"--format", "json", "--fail-on", "never")
	if err == nil {
		t.Fatal("expected error for missing target")
	}
}

func TestScanCommandInvalidFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := writeFixture(t, map[string]string{"app.py": "print('ok')\n"})
	_, err := runCommand(t, "scan", target, "--format", "xml", "--fail-on", "never")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseFailOn(t *testing.T) {
	tests := []struct {
		label   string
		level   metrics.SecurityLevel
		enabled bool
		wantErr bool
	}{
		{"critical", metrics.LevelCritical, true, false},
		{"HIGH", metrics.LevelHighRisk, true, false},
		{" medium ", metrics.LevelMediumRisk, true, false},
		{"low", metrics.LevelLowRisk, true, false},
		{"never", 0, false, false},
		{"", 0, false, false},
		{"always", 0, false, true},
	}
	for _, test := range tests {
		level, enabled, err := parseFailOn(test.label)
		if test.wantErr {
			if err == nil {
				t.Errorf("parseFailOn(%q): expected error", test.label)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFailOn(%q): %v", test.label, err)
			continue
		}
		if level != test.level || enabled != test.enabled {
			t.Errorf("parseFailOn(%q) = (%v, %v), expected (%v, %v)",
				test.label, level, enabled, test.level, test.enabled)
		}
	}
}

func TestHasFindingsAtOrAbove(t *testing.T) {
	fm := metrics.NewFileMetrics("app.py", metrics.LangPython)
	fm.Security.Record(metrics.Vulnerability{Type: "document_write", Level: metrics.LevelMediumRisk, Severity: "medium"})
	report := &engine.ScanReport{Files: []*metrics.FileMetrics{fm}}

	if !hasFindingsAtOrAbove(report, metrics.LevelMediumRisk) {
		t.Error("medium finding should trip a medium threshold")
	}
	if !hasFindingsAtOrAbove(report, metrics.LevelLowRisk) {
		t.Error("medium finding should trip a low threshold")
	}
	if hasFindingsAtOrAbove(report, metrics.LevelHighRisk) {
		t.Error("medium finding must not trip a high threshold")
	}
	if hasFindingsAtOrAbove(report, metrics.LevelCritical) {
		t.Error("medium finding must not trip a critical threshold")
	}
}

func TestBuildAnalyzerDefault(t *testing.T) {
	analyzer, err := buildAnalyzer(cfgpkg.DefaultConfig())
	if err != nil || analyzer == nil {
		t.Fatalf("default analyzer: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "codelyzer") {
		t.Errorf("unexpected version output: %q", out)
	}
}
