package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()

	baseDir := filepath.Join(tmp, "base")
	otherDir := filepath.Join(tmp, "other")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		t.Fatalf("failed to create base dir: %v", err)
	}
	if err := os.MkdirAll(otherDir, 0o755); err != nil {
		t.Fatalf("failed to create other dir: %v", err)
	}

	target := filepath.Join(otherDir, "unit.ll")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}

	want := normalizePath(target)
	if got != want {
		t.Fatalf("expected absolute fallback %q, got %q", want, got)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()

	baseDir := filepath.Join(tmp, "base")
	if err := os.MkdirAll(filepath.Join(baseDir, "blur"), 0o755); err != nil {
		t.Fatalf("failed to create base dir: %v", err)
	}

	target := filepath.Join(baseDir, "blur", "unit.ll")
	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if got != "blur/unit.ll" {
		t.Fatalf("expected relative path, got %q", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		out     string
		changed bool
	}{
		{"plain", "a\nb\n", "a\nb\n", false},
		{"crlf", "a\r\nb\r\n", "a\nb\n", true},
		{"lone cr survives", "a\rb", "a\rb", false},
		{"mixed", "a\r\nb\rc\n", "a\nb\rc\n", true},
	}
	for _, tt := range tests {
		got, changed := normalizeCRLF([]byte(tt.in))
		if string(got) != tt.out || changed != tt.changed {
			t.Errorf("%s: got %q changed=%v, expected %q changed=%v",
				tt.name, got, changed, tt.out, tt.changed)
		}
	}
}

func TestToLineColBoundaries(t *testing.T) {
	idx := buildLineIndex([]byte("ab\ncd\n"))
	tests := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3}, // the newline itself belongs to line 1
		{3, 2, 1},
		{5, 2, 3},
	}
	for _, tt := range tests {
		lc := toLineCol(idx, tt.off)
		if lc.Line != tt.line || lc.Col != tt.col {
			t.Errorf("off %d: got %d:%d, expected %d:%d", tt.off, lc.Line, lc.Col, tt.line, tt.col)
		}
	}
}
