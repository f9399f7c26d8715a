package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"green-needle/internal/app/model"
)

// MediaExtensions lists the container formats the tool accepts as input.
// Video containers are included because ffmpeg extracts their audio track.
var MediaExtensions = []string{
	".mp3", ".wav", ".m4a", ".flac", ".ogg", ".opus", ".webm",
	".mp4", ".avi", ".mkv",
}

// IsMediaFile reports whether path has a recognized audio or video extension.
func IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return lo.Contains(MediaExtensions, ext)
}

// ListMediaFiles returns the media files under inputDir whose base name
// matches pattern ("*" matches everything). With recursive set, the whole
// tree is walked. Results are ordered by modification time so batches pick
// up files in arrival order.
func ListMediaFiles(inputDir, pattern string, recursive bool) ([]model.FileInfo, error) {
	if pattern == "" {
		pattern = "*"
	}

	var fileInfos []model.FileInfo
	appendEntry := func(fullPath string, entry os.FileInfo) {
		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil || !matched || !IsMediaFile(entry.Name()) {
			return
		}
		fileInfos = append(fileInfos, model.FileInfo{
			FullPath: fullPath,
			ModTime:  entry.ModTime(),
			Name:     entry.Name(),
			Size:     entry.Size(),
		})
	}

	if recursive {
		err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				appendEntry(path, info)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("files: walk %s: %w", inputDir, err)
		}
	} else {
		entries, err := os.ReadDir(inputDir)
		if err != nil {
			return nil, fmt.Errorf("files: read %s: %w", inputDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			appendEntry(filepath.Join(inputDir, entry.Name()), info)
		}
	}

	sort.Slice(fileInfos, func(i, j int) bool {
		return fileInfos[i].ModTime.Before(fileInfos[j].ModTime)
	})
	return fileInfos, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", value)
}

// OutputPath derives the output file path for input under outputDir with the
// given extension (without dot).
func OutputPath(outputDir, input, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outputDir, SanitizeFilename(base)+"."+ext)
}

// EnsureDir creates dir and parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("files: create %s: %w", dir, err)
	}
	return nil
}

// DefaultDataDir returns the per-user directory used for the history
// database and downloaded models.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("files: resolve home: %w", err)
	}
	return filepath.Join(home, ".local", "share", "green-needle"), nil
}

// ReadTrimmed reads a text file and trims surrounding whitespace. Transcript
// files produced by whisper builds end with a trailing newline.
func ReadTrimmed(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}
