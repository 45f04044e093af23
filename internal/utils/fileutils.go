package utils

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nonWordChars = regexp.MustCompile(`\W`)

// EnsureDir creates dir and any missing parents. It is a no-op when dir exists.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WriteFile writes data to path, replacing any existing file.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save generated image to disk: %w", err)
	}
	slog.Debug("Wrote image file", "path", path, "size_bytes", len(data))
	return nil
}

// FilenameStem derives a short, filesystem-safe stem from a prompt: non-word
// characters become spaces and the first three words are joined with hyphens
// and lowercased. "A Red Fox!! Running" yields "a-red-fox".
func FilenameStem(prompt string) string {
	words := strings.Fields(nonWordChars.ReplaceAllString(prompt, " "))
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.ToLower(strings.Join(words, "-"))
}

// ImageFilename builds <prefix>-<stem>-<epoch-millis>-<index>.png.
func ImageFilename(prefix, stem string, t time.Time, index int) string {
	return fmt.Sprintf("%s-%s-%d-%d.png", prefix, stem, t.UnixMilli(), index)
}

// ImagePath joins ImageFilename onto dir.
func ImagePath(dir, prefix, stem string, t time.Time, index int) string {
	return filepath.Join(dir, ImageFilename(prefix, stem, t, index))
}

// CleanBase64Data removes potential data URI prefix and trims whitespace.
// Returns the cleaned base64 string.
func CleanBase64Data(data []byte) string {
	dataString := strings.TrimSpace(string(data))
	if commaIndex := strings.Index(dataString, ","); commaIndex != -1 && strings.HasPrefix(dataString, "data:") {
		dataString = dataString[commaIndex+1:]
	}
	return strings.TrimSpace(dataString)
}

// DecodeImageData decodes standard base64 image data into raw bytes.
func DecodeImageData(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(CleanBase64Data([]byte(encoded)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return raw, nil
}

// FormatKB renders a byte count as kilobytes with the shortest exact decimal,
// e.g. "12 KB" or "1.5 KB".
func FormatKB(n int) string {
	return strconv.FormatFloat(float64(n)/1024, 'f', -1, 64) + " KB"
}
