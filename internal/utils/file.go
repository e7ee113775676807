package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// EnsureDir creates a directory and its parents if they don't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// RootName is the artifact name prefix for a source path or URL: its
// base name, extension included, so pano.jpg yields pano.jpg-1.
func RootName(source string) string {
	base, _ := baseName(source)
	return SanitizeFilename(base)
}

// StemName is RootName without the extension, so pano.jpg yields pano-1.
// A URL without a path keeps its full host name.
func StemName(source string) string {
	base, host := baseName(source)
	if !host {
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
			base = stem
		}
	}
	return SanitizeFilename(base)
}

// baseName returns the last element of a path or URL path, or the URL
// host when the path is empty.
func baseName(source string) (string, bool) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		base := path.Base(u.Path)
		if base == "/" || base == "." {
			return u.Hostname(), true
		}
		return base, false
	}
	return filepath.Base(source), false
}

// SourceDir is the directory artifacts of a local source are written to
func SourceDir(source string) string {
	return filepath.Dir(source)
}

// PanelName is the artifact name of the panel at zero-based idx
func PanelName(root string, idx int) string {
	return root + "-" + strconv.Itoa(idx+1)
}

// CoverName is the artifact name of the cover
func CoverName(root string) string {
	return root + "-cover"
}

// DebugName is the artifact name of the layout overlay
func DebugName(root string) string {
	return root + "-debug"
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	result = strings.Trim(result, " .")
	if result == "" {
		return "image"
	}
	return result
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
