package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Song", "My Song"},
		{"reserved characters", `a/b\c:*?"<>|`, "abc"},
		{"control characters", "tab\there\x00", "tabhere"},
		{"only unsafe", `/\:*?"<>|`, DefaultFileName},
		{"empty", "", DefaultFileName},
		{"whitespace", "   ", DefaultFileName},
		{"traversal", "../../etc/passwd", "etcpasswd"},
		{"unicode kept", "Café – Live", "Café – Live"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeFileName(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
			assert.False(t, strings.ContainsAny(got, `/\:*?"<>|`))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "clip", BaseName("/tmp/uploads/clip.mp4"))
	assert.Equal(t, "noext", BaseName("noext"))
}

func TestEnsureDirAndNonEmptyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	path := filepath.Join(dir, "x.mp3")
	assert.False(t, NonEmptyFile(path))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.False(t, NonEmptyFile(path), "empty file must not count")

	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))
	assert.True(t, NonEmptyFile(path))
	assert.False(t, NonEmptyFile(dir))
}

func TestRemoveQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.wav")
	assert.NoError(t, RemoveQuietly(path))
	assert.NoError(t, RemoveQuietly(""))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.NoError(t, RemoveQuietly(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
}
