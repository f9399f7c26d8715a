package model

import "time"

// FileInfo describes one media file found by the directory walk. Name is
// the base name used for history lookups; FullPath is what gets opened.
type FileInfo struct {
	FullPath string
	Name     string
	Size     int64
	ModTime  time.Time
}
