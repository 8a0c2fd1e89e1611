// Package acquisition obtains an audio file from a remote locator by trying
// strategies in order until one produces a usable file.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/timeout"
)

// Messages shown when every strategy failed, chosen from the failure reasons.
const (
	MsgUnavailable = "Unable to convert this video. Please try a different video or format."
	MsgForbidden   = "This video is currently unavailable for download. Please try again later."
	MsgPrivate     = "This video is private or unavailable. Please check the URL."
)

const suggestion = "Try a different YouTube video URL or try again in a few moments."

// Job describes what a strategy should produce. The strategy writes its
// output to Base + Format.Ext().
type Job struct {
	Locator string
	Format  media.Format
	Base    string
}

// Output is the path a strategy is expected to produce for j.
func (j Job) Output() string {
	return j.Base + j.Format.Ext()
}

// Strategy is one way of acquiring audio.
type Strategy interface {
	Name() string
	// Timeout bounds how long the chain waits; zero waits indefinitely.
	Timeout() time.Duration
	Acquire(ctx context.Context, job Job) (string, error)
}

// Observer is notified of every finished attempt.
type Observer func(Attempt)

// Result is a successful acquisition.
type Result struct {
	Path     string
	Format   media.Format
	Strategy string
	Attempts []Attempt
}

// Chain runs strategies strictly one after another. A strategy starts only
// once the previous one has failed or timed out; there are no retries.
type Chain struct {
	strategies []Strategy
	observer   Observer
	logger     *zap.Logger
}

func NewChain(logger *zap.Logger, observer Observer, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, observer: observer, logger: logger}
}

// Acquire validates format, then runs the strategies for locator. base is
// the output path without extension; each strategy gets its own variant of
// it so a timed-out attempt that finishes late cannot clobber a later one.
func (c *Chain) Acquire(ctx context.Context, locator, format, base string) (*Result, error) {
	f, err := media.Parse(format)
	if err != nil {
		return nil, err
	}

	attempts := make([]Attempt, 0, len(c.strategies))
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		job := Job{Locator: locator, Format: f, Base: fmt.Sprintf("%s-%s", base, s.Name())}
		a := c.attempt(ctx, s, job)
		attempts = append(attempts, a)
		if c.observer != nil {
			c.observer(a)
		}

		if a.Succeeded() {
			c.logger.Info("Acquisition succeeded",
				zap.String("strategy", a.Strategy),
				zap.Duration("elapsed", a.Elapsed),
				zap.String("path", a.Path))
			return &Result{Path: a.Path, Format: f, Strategy: a.Strategy, Attempts: attempts}, nil
		}
		c.logger.Warn("Acquisition strategy failed",
			zap.String("strategy", a.Strategy),
			zap.Stringer("outcome", a.Outcome),
			zap.Duration("elapsed", a.Elapsed),
			zap.Error(a.Reason))
	}

	cause := joinReasons(attempts)
	return nil, apperrors.New(apperrors.KindAcquisitionUnavailable, unavailableMessage(cause)).
		WithSuggestions(suggestion).
		WithCause(cause)
}

func unavailableMessage(cause error) string {
	reason := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(reason, "403"):
		return MsgForbidden
	case strings.Contains(reason, "private") || strings.Contains(reason, "unavailable"):
		return MsgPrivate
	default:
		return MsgUnavailable
	}
}

func (c *Chain) attempt(ctx context.Context, s Strategy, job Job) Attempt {
	a := Attempt{Strategy: s.Name(), Deadline: s.Timeout()}
	start := time.Now()
	path, err := timeout.Race(ctx, s.Timeout(), func(ctx context.Context) (string, error) {
		return s.Acquire(ctx, job)
	})
	a.Elapsed = time.Since(start)

	switch {
	case err == nil:
		a.Outcome = OutcomeSuccess
		a.Path = path
	case errors.Is(err, timeout.ErrTimeout):
		a.Outcome = OutcomeTimeout
		a.Reason = err
	default:
		a.Outcome = OutcomeFailure
		a.Reason = err
	}
	return a
}

func joinReasons(attempts []Attempt) error {
	if len(attempts) == 0 {
		return errors.New("no acquisition strategies configured")
	}
	errs := make([]error, 0, len(attempts))
	for _, a := range attempts {
		errs = append(errs, errors.New(a.String()))
	}
	return errors.Join(errs...)
}
