package gitctx

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// ChangeContext captures a minimal view of the current git change-set
// for the scanned tree. Paths are relative to the scan target, matching
// report file identities.
type ChangeContext struct {
	ModifiedFiles []string `json:"modified_files"`
	ChangeScope   string   `json:"change_scope"` // small | medium | large
	GitSHA        string   `json:"git_sha,omitempty"`
	Branch        string   `json:"branch,omitempty"`
}

// Collect gathers change context for the repository containing target.
// Returns a nil context (and nil error) when target is not inside a
// git worktree; scanning never depends on git being present.
func Collect(target string) (*ChangeContext, map[string]struct{}) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil
	}
	status, err := wt.Status()
	if err != nil {
		return nil, nil
	}

	// Status paths are worktree-root-relative; report identities are
	// target-relative. Re-anchor so the two line up even when the
	// target is a subdirectory of the repository.
	base := targetBase(target)
	root := wt.Filesystem.Root()

	files := make(map[string]struct{})
	for path, s := range status {
		// Both staged and unstaged changes count as modified.
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		rel, err := filepath.Rel(base, filepath.Join(root, filepath.FromSlash(path)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// Changed outside the scanned tree.
			continue
		}
		files[filepath.ToSlash(rel)] = struct{}{}
	}
	modified := make([]string, 0, len(files))
	for f := range files {
		modified = append(modified, f)
	}
	sort.Strings(modified)

	return &ChangeContext{
		ModifiedFiles: modified,
		ChangeScope:   classifyScope(len(files)),
		GitSHA:        head.Hash().String(),
		Branch:        head.Name().Short(),
	}, files
}

// targetBase resolves the directory that report paths are relative to:
// the target itself, or its parent when the target is a single file.
func targetBase(target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}

func classifyScope(fileCount int) string {
	switch {
	case fileCount <= 5:
		return "small"
	case fileCount <= 20:
		return "medium"
	default:
		return "large"
	}
}
