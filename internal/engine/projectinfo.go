/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ProjectInfo identifies the scanned project, when its manifest can be
// found at the target root.
type ProjectInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source"`
}

// pyproject models the subset of pyproject.toml we read. Both PEP 621
// metadata and the poetry table are recognized.
type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// detectProjectInfo reads project identity from pyproject.toml or
// package.json at the target root. Returns nil when neither exists or
// parses; report metadata simply omits the project block.
func detectProjectInfo(target string) *ProjectInfo {
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return nil
	}

	if data, err := os.ReadFile(filepath.Join(target, "pyproject.toml")); err == nil { // #nosec G304 -- fixed name under target
		var p pyproject
		if err := toml.Unmarshal(data, &p); err == nil {
			if p.Project.Name != "" {
				return &ProjectInfo{Name: p.Project.Name, Version: p.Project.Version, Source: "pyproject.toml"}
			}
			if p.Tool.Poetry.Name != "" {
				return &ProjectInfo{Name: p.Tool.Poetry.Name, Version: p.Tool.Poetry.Version, Source: "pyproject.toml"}
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(target, "package.json")); err == nil { // #nosec G304 -- fixed name under target
		var pkg struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &pkg); err == nil && pkg.Name != "" {
			return &ProjectInfo{Name: pkg.Name, Version: pkg.Version, Source: "package.json"}
		}
	}

	return nil
}
