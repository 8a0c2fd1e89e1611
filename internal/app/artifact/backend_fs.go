package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mediaconv/internal/app/util/files"
)

// FSBackend keeps artifacts in a local directory.
type FSBackend struct {
	dir string
}

func NewFSBackend(dir string) (*FSBackend, error) {
	if err := files.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FSBackend{dir: dir}, nil
}

func (b *FSBackend) Name() string { return "fs" }

// Path returns where key lives on disk.
func (b *FSBackend) Path(key string) string {
	return filepath.Join(b.dir, filepath.Base(key))
}

func (b *FSBackend) Save(_ context.Context, key, localPath string) (int64, error) {
	dst := b.Path(key)
	if err := os.Rename(localPath, dst); err != nil {
		// rename fails across devices; fall back to copying
		if err := copyFile(localPath, dst); err != nil {
			return 0, err
		}
		_ = os.Remove(localPath)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat artifact: %w", err)
	}
	return info.Size(), nil
}

func (b *FSBackend) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrMissing
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (b *FSBackend) Delete(_ context.Context, key string) error {
	return files.RemoveQuietly(b.Path(key))
}

func (b *FSBackend) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.dir, err)
	}
	var out []Object
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{Key: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}
