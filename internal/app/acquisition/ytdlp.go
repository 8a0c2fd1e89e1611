package acquisition

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediaconv/internal/app/util/files"
)

// YtDlp extracts audio with the yt-dlp command line tool.
type YtDlp struct {
	Binary      string
	MaxFileSize string
	Deadline    time.Duration
}

func NewYtDlp(binary, maxFileSize string, deadline time.Duration) *YtDlp {
	return &YtDlp{Binary: binary, MaxFileSize: maxFileSize, Deadline: deadline}
}

func (y *YtDlp) Name() string { return "ytdlp" }

func (y *YtDlp) Timeout() time.Duration { return y.Deadline }

// Args builds the yt-dlp command line for job.
func (y *YtDlp) Args(job Job) []string {
	args := []string{
		"-x",
		"--audio-format", job.Format.String(),
		"--audio-quality", "0",
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-warnings",
	}
	if y.MaxFileSize != "" {
		args = append(args, "--max-filesize", y.MaxFileSize)
	}
	return append(args, "-o", job.Base+".%(ext)s", job.Locator)
}

// Acquire runs yt-dlp. A zero exit status alone is not success: yt-dlp exits
// cleanly when --max-filesize skips the download, so the expected output
// must exist and be non-empty.
func (y *YtDlp) Acquire(ctx context.Context, job Job) (string, error) {
	cmd := exec.CommandContext(ctx, y.Binary, y.Args(job)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp error: %v, stderr: %s", err, tail(stderr.String(), 512))
	}

	out := job.Output()
	if !files.NonEmptyFile(out) {
		return "", fmt.Errorf("yt-dlp produced no output at %s", out)
	}
	return out, nil
}

// tail keeps the last n bytes of s, which is where tools print the reason
// they gave up.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
