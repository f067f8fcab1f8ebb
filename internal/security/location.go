/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package security

import (
	"strings"

	"github.com/fulmenhq/codelyzer/internal/metrics"
)

// LocateOffset resolves a byte offset within content to a Location.
// Line counts newline-delimited segments up to the offset (1-based);
// Column is the 1-based offset within that line. Offsets out of range
// are clamped so the resolver never panics on adversarial input.
func LocateOffset(content string, offset int) metrics.Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	prefix := content[:offset]
	line := strings.Count(prefix, "\n") + 1
	column := offset - strings.LastIndexByte(prefix, '\n')
	return metrics.Location{Line: line, Column: column, Position: offset}
}
