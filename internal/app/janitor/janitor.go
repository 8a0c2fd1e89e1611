// Package janitor periodically removes files nothing else will clean up.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// Expirer drops artifacts that were never collected.
type Expirer interface {
	Expire(ctx context.Context, ttl time.Duration) int
}

// Report summarizes one sweep.
type Report struct {
	Residue  int
	Orphans  int
	Expired  int
	Failures int
}

// Config controls what a sweep touches.
type Config struct {
	// Dir is scanned for files whose names match Pattern.
	Dir     string
	Pattern string
	// WorkDir holds in-flight downloads and uploads. Regular files older
	// than TTL are left over from abandoned attempts.
	WorkDir  string
	TTL      time.Duration
	Interval time.Duration
}

// Janitor runs sweeps on a fixed interval. Every error is logged and
// swallowed so a sweep never stops the loop.
type Janitor struct {
	cfg      Config
	pattern  *regexp.Regexp
	expirer  Expirer
	observer func(Report)
	logger   *zap.Logger
	now      func() time.Time
}

func New(cfg Config, expirer Expirer, observer func(Report), logger *zap.Logger) (*Janitor, error) {
	pattern, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid residue pattern: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		cfg:      cfg,
		pattern:  pattern,
		expirer:  expirer,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	j.Sweep(ctx)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep performs one pass.
func (j *Janitor) Sweep(ctx context.Context) Report {
	var r Report
	j.sweepResidue(&r)
	if j.cfg.WorkDir != "" && j.cfg.TTL > 0 {
		j.sweepOrphans(&r)
	}
	if j.expirer != nil && j.cfg.TTL > 0 {
		r.Expired = j.expirer.Expire(ctx, j.cfg.TTL)
	}

	if r.Residue+r.Orphans+r.Expired > 0 {
		j.logger.Info("Janitor sweep removed files",
			zap.Int("residue", r.Residue),
			zap.Int("orphans", r.Orphans),
			zap.Int("expired", r.Expired))
	}
	if j.observer != nil {
		j.observer(r)
	}
	return r
}

func (j *Janitor) sweepResidue(r *Report) {
	entries, err := os.ReadDir(j.cfg.Dir)
	if err != nil {
		j.logger.Warn("Janitor cannot read directory", zap.String("dir", j.cfg.Dir), zap.Error(err))
		r.Failures++
		return
	}
	for _, e := range entries {
		if e.IsDir() || !j.pattern.MatchString(e.Name()) {
			continue
		}
		j.remove(filepath.Join(j.cfg.Dir, e.Name()), &r.Residue, r)
	}
}

func (j *Janitor) sweepOrphans(r *Report) {
	entries, err := os.ReadDir(j.cfg.WorkDir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("Janitor cannot read work directory", zap.String("dir", j.cfg.WorkDir), zap.Error(err))
			r.Failures++
		}
		return
	}
	cutoff := j.now().Add(-j.cfg.TTL)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		j.remove(filepath.Join(j.cfg.WorkDir, e.Name()), &r.Orphans, r)
	}
}

func (j *Janitor) remove(path string, counter *int, r *Report) {
	if err := os.Remove(path); err != nil {
		j.logger.Debug("Janitor failed to remove file", zap.String("path", path), zap.Error(err))
		r.Failures++
		return
	}
	*counter++
}
