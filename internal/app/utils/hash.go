package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the hex SHA-256 of a file's contents. The hash
// identifies audio inputs across renames for the history store and the
// result cache.
func FileSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("utils: open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("utils: read file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// KeyHash derives a stable cache key from its parts.
func KeyHash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// FileSize returns the size of a file in bytes.
func FileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("utils: stat file: %w", err)
	}
	return fileInfo.Size(), nil
}
