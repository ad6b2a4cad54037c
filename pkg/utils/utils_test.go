package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestWalkTree(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "app", "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]int{
		"app/run.sh":         10,
		"app/conf/main.yaml": 2048,
		"README":             0,
	}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(root, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink("app/run.sh", filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	stats, err := WalkTree(root)
	if err != nil {
		t.Fatalf("WalkTree() error = %v", err)
	}
	want := TreeStats{Files: 3, Dirs: 2, Bytes: 2058}
	if stats != want {
		t.Errorf("WalkTree() = %+v, want %+v", stats, want)
	}
	if got := stats.String(); got != "3 files, 2 directories, 2.0 KB" {
		t.Errorf("String() = %q", got)
	}
}

func TestWalkTreeMissingRoot(t *testing.T) {
	if _, err := WalkTree(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Errorf("WalkTree() error = %v, want not-exist", err)
	}
}
