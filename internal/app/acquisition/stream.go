package acquisition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"

	"mediaconv/internal/app/util/files"
)

// StreamClient is the part of *youtube.Client the stream strategy needs.
type StreamClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Stream pulls the best audio-only stream with the YouTube client and pipes
// it through ffmpeg into the target codec.
type Stream struct {
	client   StreamClient
	ffmpeg   string
	deadline time.Duration
}

func NewStream(client StreamClient, ffmpegPath string, deadline time.Duration) *Stream {
	return &Stream{client: client, ffmpeg: ffmpegPath, deadline: deadline}
}

func (s *Stream) Name() string { return "stream" }

func (s *Stream) Timeout() time.Duration { return s.deadline }

func (s *Stream) Acquire(ctx context.Context, job Job) (string, error) {
	video, err := s.client.GetVideoContext(ctx, job.Locator)
	if err != nil {
		return "", fmt.Errorf("get video info: %w", err)
	}
	format, err := BestAudioFormat(video.Formats)
	if err != nil {
		return "", err
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open audio stream: %w", err)
	}
	defer stream.Close()

	out := job.Output()
	enc := job.Format.Encoding()
	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-i", "pipe:0",
		"-vn",
		"-acodec", enc.Codec,
		"-b:a", enc.Bitrate,
		"-f", job.Format.String(),
		"-y", out)
	cmd.Stdin = stream
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("FFmpeg error: %v, stderr: %s", err, tail(stderr.String(), 512))
	}
	if !files.NonEmptyFile(out) {
		return "", fmt.Errorf("ffmpeg produced no output at %s", out)
	}
	return out, nil
}

// BestAudioFormat picks the audio-only format with the highest bitrate.
func BestAudioFormat(formats youtube.FormatList) (*youtube.Format, error) {
	audio := lo.Filter(formats, func(f youtube.Format, _ int) bool {
		return strings.HasPrefix(f.MimeType, "audio/")
	})
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio-only formats available")
	}
	best := lo.MaxBy(audio, func(a, b youtube.Format) bool {
		return a.Bitrate > b.Bitrate
	})
	return &best, nil
}
