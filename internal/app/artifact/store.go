// Package artifact owns conversion outputs from the moment they are produced
// until they have been delivered once and deleted.
package artifact

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/lifecycle"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/util/files"
)

// ErrMissing is returned by a Backend when the key has no content.
var ErrMissing = errors.New("artifact content missing")

// Scheduler runs deferred work. *lifecycle.Executor satisfies it.
type Scheduler interface {
	After(d time.Duration, name string, fn func())
}

var _ Scheduler = (*lifecycle.Executor)(nil)

// Store tracks artifacts and enforces single delivery. Deletion after
// delivery is deferred by the grace period so slow clients can finish
// reading.
type Store struct {
	backend   Backend
	scheduler Scheduler
	grace     time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	items map[string]*model.Artifact
}

func NewStore(backend Backend, scheduler Scheduler, grace time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:   backend,
		scheduler: scheduler,
		grace:     grace,
		logger:    logger,
		now:       time.Now,
		items:     make(map[string]*model.Artifact),
	}
}

// NewID builds a collision-free artifact id of the form
// <uuid>-<sanitized name>.<format>.
func NewID(logicalName string, f media.Format) string {
	return uuid.NewString() + "-" + files.SafeFileName(logicalName) + f.Ext()
}

// ParseID recovers the logical file name and format from an id built by
// NewID. ok is false for keys this store did not create.
func ParseID(id string) (logicalName string, f media.Format, ok bool) {
	const uuidLen = 36
	if len(id) <= uuidLen+1 || id[uuidLen] != '-' {
		return "", "", false
	}
	if _, err := uuid.Parse(id[:uuidLen]); err != nil {
		return "", "", false
	}
	ext := filepath.Ext(id)
	if ext == "" {
		return "", "", false
	}
	f, err := media.Parse(strings.TrimPrefix(ext, "."))
	if err != nil {
		return "", "", false
	}
	return id[uuidLen+1:], f, true
}

// Restore indexes artifacts already held by the backend, for example after
// a restart, so they can still be delivered once or expired. Keys that were
// not produced by NewID are left alone.
func (s *Store) Restore(ctx context.Context) (int, error) {
	objects, err := s.backend.List(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	s.mu.Lock()
	for _, obj := range objects {
		name, f, ok := ParseID(obj.Key)
		if !ok {
			continue
		}
		if _, known := s.items[obj.Key]; known {
			continue
		}
		s.items[obj.Key] = &model.Artifact{
			ID:          obj.Key,
			LogicalName: name,
			Format:      f.String(),
			Size:        obj.Size,
			CreatedAt:   obj.ModTime,
		}
		restored++
	}
	s.mu.Unlock()

	if restored > 0 {
		s.logger.Info("Artifacts restored from backend",
			zap.String("backend", s.backend.Name()),
			zap.Int("count", restored))
	}
	return restored, nil
}

// Put moves the file at localPath into the store. logicalName is the
// user-facing base name; it is sanitized before use.
func (s *Store) Put(ctx context.Context, localPath, logicalName string, f media.Format) (*model.Artifact, error) {
	id := NewID(logicalName, f)
	size, err := s.backend.Save(ctx, id, localPath)
	if err != nil {
		_ = files.RemoveQuietly(localPath)
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to store converted file")
	}

	a := &model.Artifact{
		ID:          id,
		LogicalName: files.SafeFileName(logicalName) + f.Ext(),
		Format:      f.String(),
		Size:        size,
		CreatedAt:   s.now(),
	}
	s.mu.Lock()
	s.items[id] = a
	s.mu.Unlock()

	s.logger.Info("Artifact stored",
		zap.String("id", id),
		zap.String("backend", s.backend.Name()),
		zap.Int64("size", size))
	cp := *a
	return &cp, nil
}

// Delivery streams an artifact. Closing it schedules the artifact for
// deletion after the grace period.
type Delivery struct {
	io.ReadCloser
	Artifact    model.Artifact
	Size        int64
	ContentType string

	once    sync.Once
	release func()
}

func (d *Delivery) Close() error {
	err := d.ReadCloser.Close()
	d.once.Do(d.release)
	return err
}

// Retrieve hands out the artifact exactly once. Any later call, or a call
// for an unknown id, is not-found.
func (s *Store) Retrieve(ctx context.Context, id string) (*Delivery, error) {
	s.mu.Lock()
	a, ok := s.items[id]
	if !ok || a.Delivered {
		s.mu.Unlock()
		return nil, apperrors.ErrArtifactAbsent
	}
	a.Delivered = true
	snapshot := *a
	s.mu.Unlock()

	rc, size, err := s.backend.Open(ctx, id)
	if err != nil {
		s.forget(id)
		if errors.Is(err, ErrMissing) {
			return nil, apperrors.ErrArtifactAbsent
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to read converted file")
	}

	return &Delivery{
		ReadCloser:  rc,
		Artifact:    snapshot,
		Size:        size,
		ContentType: ContentType(id),
		release: func() {
			s.scheduler.After(s.grace, "delete "+id, func() {
				s.remove(context.Background(), id)
			})
		},
	}, nil
}

// Discard deletes an artifact immediately, delivered or not.
func (s *Store) Discard(ctx context.Context, id string) {
	s.remove(ctx, id)
}

// Expire deletes undelivered artifacts older than ttl and reports how many
// were removed. Delivered artifacts are left to their scheduled deletion.
func (s *Store) Expire(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	var stale []string
	s.mu.Lock()
	for id, a := range s.items {
		if !a.Delivered && a.CreatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.remove(ctx, id)
	}
	return len(stale)
}

// Active reports how many artifacts the store still tracks.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Lookup returns a copy of the artifact record without delivering it.
func (s *Store) Lookup(id string) (model.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return model.Artifact{}, false
	}
	return *a, true
}

func (s *Store) remove(ctx context.Context, id string) {
	s.forget(id)
	if err := s.backend.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to delete artifact", zap.String("id", id), zap.Error(err))
		return
	}
	s.logger.Debug("Artifact deleted", zap.String("id", id))
}

func (s *Store) forget(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// ContentType guesses the MIME type from the artifact's extension.
func ContentType(name string) string {
	switch filepath.Ext(name) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
