// Package metadata resolves advisory information about a remote video. It
// never blocks a conversion: failures surface only on the preview endpoint.
package metadata

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/timeout"
)

// FallbackOEmbed marks metadata produced by the oEmbed path.
const FallbackOEmbed = "oembed"

// ErrPreviewUnavailable is returned when every source failed.
var ErrPreviewUnavailable = apperrors.New(apperrors.KindPreviewUnavailable, "YouTube preview temporarily unavailable").
	WithSuggestions("Try a different YouTube video", "Ensure the URL is correct")

// Source looks up metadata for a locator.
type Source interface {
	Lookup(ctx context.Context, locator string) (*model.Metadata, error)
}

// Resolver tries the full-detail source first and falls back to a
// lower-fidelity one, each bounded by its own deadline.
type Resolver struct {
	primary         Source
	fallback        Source
	primaryTimeout  time.Duration
	fallbackTimeout time.Duration
	logger          *zap.Logger
}

func NewResolver(primary, fallback Source, primaryTimeout, fallbackTimeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		primary:         primary,
		fallback:        fallback,
		primaryTimeout:  primaryTimeout,
		fallbackTimeout: fallbackTimeout,
		logger:          logger,
	}
}

// Resolve returns metadata for locator. The result of the fallback source has
// Fallback set; when both sources fail the error is ErrPreviewUnavailable with
// the primary failure as its cause.
func (r *Resolver) Resolve(ctx context.Context, locator string) (*model.Metadata, error) {
	meta, primaryErr := timeout.Race(ctx, r.primaryTimeout, func(ctx context.Context) (*model.Metadata, error) {
		return r.primary.Lookup(ctx, locator)
	})
	if primaryErr == nil {
		return meta, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	r.logger.Debug("Primary metadata lookup failed", zap.String("locator", locator), zap.Error(primaryErr))

	if r.fallback == nil {
		return nil, ErrPreviewUnavailable.WithCause(primaryErr)
	}
	meta, fallbackErr := timeout.Race(ctx, r.fallbackTimeout, func(ctx context.Context) (*model.Metadata, error) {
		return r.fallback.Lookup(ctx, locator)
	})
	if fallbackErr != nil {
		r.logger.Warn("Metadata lookup failed",
			zap.String("locator", locator),
			zap.NamedError("primary", primaryErr),
			zap.NamedError("fallback", fallbackErr))
		return nil, ErrPreviewUnavailable.WithCause(errors.Join(primaryErr, fallbackErr))
	}
	meta.Fallback = FallbackOEmbed
	return meta, nil
}
