package converter

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mediaconv/internal/app/acquisition"
	"mediaconv/internal/app/audio"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/util/files"
)

// DefaultTitle names remote artifacts whose metadata could not be resolved.
const DefaultTitle = "youtube_audio"

// StrategyUpload is reported as the strategy of upload conversions.
const StrategyUpload = "upload"

type Acquirer interface {
	Acquire(ctx context.Context, locator, format, base string) (*acquisition.Result, error)
}

type MetadataResolver interface {
	Resolve(ctx context.Context, locator string) (*model.Metadata, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, input, output string, f media.Format) error
}

type Prober interface {
	NeedsTranscode(ctx context.Context, path string, f media.Format) bool
}

type Tagger interface {
	Tag(path string, f media.Format, tags audio.Tags) error
}

type ArtifactStore interface {
	Put(ctx context.Context, localPath, logicalName string, f media.Format) (*model.Artifact, error)
}

// Observer is told about every finished conversion.
type Observer func(source model.SourceKind, err error, elapsed time.Duration)

// Deps are the collaborators of a Converter. Tagger, Prober and Observer
// are optional.
type Deps struct {
	Acquirer   Acquirer
	Resolver   MetadataResolver
	Transcoder Transcoder
	Prober     Prober
	Tagger     Tagger
	Store      ArtifactStore
	Observer   Observer
	// WorkDir holds intermediate files until they are handed to the store.
	WorkDir string
}

// Result describes a stored conversion output.
type Result struct {
	Artifact *model.Artifact
	Filename string
	Format   media.Format
	Strategy string
	Attempts []acquisition.Attempt
	Metadata *model.Metadata
}

// Converter runs the pipeline: acquire, transcode, tag, store.
type Converter struct {
	deps   Deps
	logger *zap.Logger
}

func NewConverter(deps Deps, logger *zap.Logger) (*Converter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := files.EnsureDir(deps.WorkDir); err != nil {
		return nil, err
	}
	return &Converter{deps: deps, logger: logger}, nil
}

// ConvertRemote acquires the audio behind req.Locator and stores it in
// req.Format. Metadata is best-effort and only used for naming and tags.
func (c *Converter) ConvertRemote(ctx context.Context, req model.ConversionRequest, progress Progress) (result *Result, err error) {
	start := time.Now()
	defer func() { c.observe(model.SourceRemote, err, start) }()

	f, err := media.Parse(req.Format)
	if err != nil {
		return nil, err
	}
	progress = progress.orNop()

	progress(StageMetadata)
	meta := c.resolve(ctx, req.Locator)
	title := DefaultTitle
	if meta != nil && meta.Title != "" {
		title = meta.Title
	}

	progress(StageAcquire)
	base := filepath.Join(c.deps.WorkDir, uuid.NewString())
	acquired, err := c.deps.Acquirer.Acquire(ctx, req.Locator, f.String(), base)
	if err != nil {
		return nil, err
	}

	progress(StageTranscode)
	path := acquired.Path
	if c.deps.Prober == nil || c.deps.Prober.NeedsTranscode(ctx, path, f) {
		out := base + "-final" + f.Ext()
		if err := c.deps.Transcoder.Transcode(ctx, path, out, f); err != nil {
			return nil, err
		}
		path = out
	}

	progress(StageTag)
	c.tag(path, f, meta)

	progress(StageStore)
	artifact, err := c.deps.Store.Put(ctx, path, title, f)
	if err != nil {
		return nil, err
	}

	progress(StageDone)
	c.logger.Info("remote conversion finished",
		zap.String("artifact", artifact.ID),
		zap.String("strategy", acquired.Strategy),
		zap.Int("attempts", len(acquired.Attempts)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Artifact: artifact,
		Filename: artifact.LogicalName,
		Format:   f,
		Strategy: acquired.Strategy,
		Attempts: acquired.Attempts,
		Metadata: meta,
	}, nil
}

// ConvertUpload transcodes the uploaded file at req.Locator and stores the
// result under the original file's base name. The upload is always removed.
func (c *Converter) ConvertUpload(ctx context.Context, req model.ConversionRequest, progress Progress) (result *Result, err error) {
	start := time.Now()
	defer func() { c.observe(model.SourceUpload, err, start) }()

	f, err := media.Parse(req.Format)
	if err != nil {
		_ = files.RemoveQuietly(req.Locator)
		return nil, err
	}
	progress = progress.orNop()

	progress(StageTranscode)
	out := filepath.Join(c.deps.WorkDir, uuid.NewString()+"-"+StrategyUpload+f.Ext())
	if err := c.deps.Transcoder.Transcode(ctx, req.Locator, out, f); err != nil {
		return nil, err
	}

	progress(StageStore)
	name := files.BaseName(req.OriginalName)
	artifact, err := c.deps.Store.Put(ctx, out, name, f)
	if err != nil {
		return nil, err
	}

	progress(StageDone)
	c.logger.Info("upload conversion finished",
		zap.String("artifact", artifact.ID),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Artifact: artifact,
		Filename: artifact.LogicalName,
		Format:   f,
		Strategy: StrategyUpload,
	}, nil
}

func (c *Converter) resolve(ctx context.Context, locator string) *model.Metadata {
	if c.deps.Resolver == nil {
		return nil
	}
	meta, err := c.deps.Resolver.Resolve(ctx, locator)
	if err != nil {
		c.logger.Warn("metadata unavailable, using default title", zap.String("locator", locator), zap.Error(err))
		return nil
	}
	return meta
}

func (c *Converter) tag(path string, f media.Format, meta *model.Metadata) {
	if c.deps.Tagger == nil || meta == nil {
		return
	}
	tags := audio.Tags{Title: meta.Title, Artist: meta.Channel}
	if err := c.deps.Tagger.Tag(path, f, tags); err != nil {
		c.logger.Warn("tagging failed", zap.String("path", path), zap.Error(err))
	}
}

func (c *Converter) observe(source model.SourceKind, err error, start time.Time) {
	if c.deps.Observer != nil {
		c.deps.Observer(source, err, time.Since(start))
	}
}
