package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// DefaultFileName is used when sanitizing leaves nothing behind.
const DefaultFileName = "file"

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// SafeFileName strips characters that are unsafe in a filename or that could
// escape a directory when the result is joined onto a path.
func SafeFileName(name string) string {
	cleaned := strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	// Leading dots would produce hidden files or "..".
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return DefaultFileName
	}
	return cleaned
}

// BaseName returns the filename without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EnsureDir creates dir and its parents if they do not exist.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// NonEmptyFile reports whether path exists, is a regular file and has content.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// RemoveQuietly deletes path and reports the error instead of failing; a
// missing file is not an error.
func RemoveQuietly(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func GetProjectRoot() (string, error) {
	_, filename, _, _ := runtime.Caller(0)
	return findGoModRoot(filename)
}

func findGoModRoot(path string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path, nil
		}
		newPath := filepath.Dir(path)
		if newPath == path {
			return "", fmt.Errorf("go.mod not found")
		}
		path = newPath
	}
}
