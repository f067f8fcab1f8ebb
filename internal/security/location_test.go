/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package security

import "testing"

func TestLocateOffset(t *testing.T) {
	content := "first line\nsecond line\nthird line\n"

	tests := []struct {
		name   string
		offset int
		line   int
		column int
	}{
		{"start of content", 0, 1, 1},
		{"mid first line", 6, 1, 7},
		{"start of second line", 11, 2, 1},
		{"start of third line", 23, 3, 1},
		{"mid third line", 29, 3, 7},
	}
	for _, test := range tests {
		loc := LocateOffset(content, test.offset)
		if loc.Line != test.line || loc.Column != test.column || loc.Position != test.offset {
			t.Errorf("%s: LocateOffset(%d) = {line %d, col %d, pos %d}, expected {line %d, col %d, pos %d}",
				test.name, test.offset, loc.Line, loc.Column, loc.Position, test.line, test.column, test.offset)
		}
	}
}

func TestLocateOffsetClampsOutOfRange(t *testing.T) {
	content := "ab\ncd"

	loc := LocateOffset(content, -4)
	if loc.Line != 1 || loc.Column != 1 || loc.Position != 0 {
		t.Errorf("negative offset: got %+v", loc)
	}

	loc = LocateOffset(content, 999)
	if loc.Line != 2 || loc.Column != 3 || loc.Position != len(content) {
		t.Errorf("oversized offset: got %+v", loc)
	}
}

func TestLocateOffsetEmptyContent(t *testing.T) {
	loc := LocateOffset("", 0)
	if loc.Line != 1 || loc.Column != 1 || loc.Position != 0 {
		t.Errorf("empty content: got %+v", loc)
	}
}
