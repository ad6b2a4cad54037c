package utils

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// FormatSize formats a size in bytes to a human-readable string
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// TreeStats summarizes a local directory tree
type TreeStats struct {
	Files int
	Dirs  int
	Bytes int64
}

func (s TreeStats) String() string {
	return fmt.Sprintf("%d files, %d directories, %s", s.Files, s.Dirs, FormatSize(s.Bytes))
}

// WalkTree counts regular files, directories and bytes under root.
// Entries that cannot be read are skipped; the root itself must exist.
func WalkTree(root string) (TreeStats, error) {
	var stats TreeStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		switch {
		case d.IsDir():
			if path != root {
				stats.Dirs++
			}
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return nil
			}
			stats.Files++
			stats.Bytes += info.Size()
		}
		return nil
	})
	return stats, err
}
