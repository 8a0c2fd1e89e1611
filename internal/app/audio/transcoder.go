// Package audio wraps the ffmpeg and ffprobe tools and ID3 tagging.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/util/files"
)

// ErrConversionFailed is the caller-facing error for any ffmpeg failure.
var ErrConversionFailed = apperrors.New(apperrors.KindConversionFailed, "audio conversion failed").
	WithSuggestions("Ensure the file is a valid video or audio file")

// Transcoder converts local media files with ffmpeg.
type Transcoder struct {
	ffmpeg string
	logger *zap.Logger
}

func NewTranscoder(ffmpegPath string, logger *zap.Logger) *Transcoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcoder{ffmpeg: ffmpegPath, logger: logger}
}

// Args builds the ffmpeg command line.
func Args(input, output string, f media.Format) []string {
	enc := f.Encoding()
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", enc.Codec,
		"-b:a", enc.Bitrate,
		"-f", f.String(),
		output,
	}
}

// Transcode writes input to output in format f. The input file is removed
// afterwards whatever the outcome; a failed removal is only logged. ffmpeg's
// stderr is kept as the internal cause and never becomes the message.
func (t *Transcoder) Transcode(ctx context.Context, input, output string, f media.Format) error {
	defer t.removeInput(input)

	cmd := exec.CommandContext(ctx, t.ffmpeg, Args(input, output, f)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = files.RemoveQuietly(output)
		return ErrConversionFailed.WithCause(fmt.Errorf("FFmpeg error: %v, stderr: %s", err, strings.TrimSpace(stderr.String())))
	}
	if !files.NonEmptyFile(output) {
		return ErrConversionFailed.WithCause(fmt.Errorf("ffmpeg produced no output at %s", output))
	}

	t.logger.Debug("Transcode completed", zap.String("output", output), zap.Stringer("format", f))
	return nil
}

func (t *Transcoder) removeInput(input string) {
	if err := files.RemoveQuietly(input); err != nil {
		t.logger.Warn("Failed to remove transcoder input", zap.String("path", input), zap.Error(err))
	}
}
