package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcherDefaults(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	for _, dir := range []string{".git", "node_modules", "venv", ".venv", "__pycache__", "dist"} {
		if !m.IsIgnoredDir(filepath.Join(root, dir)) {
			t.Errorf("default directory %s should be ignored", dir)
		}
	}
	if m.IsIgnored(filepath.Join(root, "app.py")) {
		t.Error("ordinary source file should not be ignored")
	}
	if m.IsIgnoredDir(filepath.Join(root, "src")) {
		t.Error("ordinary directory should not be ignored")
	}
}

func TestMatcherGitignore(t *testing.T) {
	root := t.TempDir()
	gitignore := "build/\n*.generated.py\n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsIgnoredDir(filepath.Join(root, "build")) {
		t.Error("build/ from .gitignore should be ignored")
	}
	if !m.IsIgnored(filepath.Join(root, "api.generated.py")) {
		t.Error("*.generated.py from .gitignore should be ignored")
	}
	if m.IsIgnored(filepath.Join(root, "api.py")) {
		t.Error("api.py should not be ignored")
	}
}

func TestMatcherCodelyzerignore(t *testing.T) {
	root := t.TempDir()
	content := "# vendored sources\nvendor/\nfixtures/**\n\n"
	if err := os.WriteFile(filepath.Join(root, ".codelyzerignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsIgnoredDir(filepath.Join(root, "vendor")) {
		t.Error("vendor/ from .codelyzerignore should be ignored")
	}
	if !m.IsIgnored(filepath.Join(root, "fixtures", "sample.py")) {
		t.Error("fixtures/** from .codelyzerignore should be ignored")
	}
	if m.IsIgnored(filepath.Join(root, "main.py")) {
		t.Error("main.py should not be ignored")
	}
}

func TestMatcherNestedPaths(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsIgnored(filepath.Join(root, "node_modules", "pkg", "index.js")) {
		t.Error("files under node_modules should be ignored")
	}
}

func TestReadIgnoreFileRejectsOtherNames(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "random.txt")
	if err := os.WriteFile(path, []byte("vendor/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readIgnoreFile(path); err == nil {
		t.Fatal("expected error for non-allowlisted file name")
	}
}

func TestReadIgnoreFileSkipsCommentsAndBlanks(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".codelyzerignore")
	if err := os.WriteFile(path, []byte("# comment\n\nvendor/\n  \n*.bak\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	patterns, err := readIgnoreFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 2 || patterns[0] != "vendor/" || patterns[1] != "*.bak" {
		t.Fatalf("patterns = %v, expected [vendor/ *.bak]", patterns)
	}
}
