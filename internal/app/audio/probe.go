package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
)

// Prober inspects media files with ffprobe.
type Prober struct {
	ffprobe string
}

func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobe: ffprobePath}
}

func (p *Prober) Probe(ctx context.Context, path string) (*model.FFProbeOutput, error) {
	cmd := exec.CommandContext(ctx, p.ffprobe, "-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probeOutput model.FFProbeOutput
	if err := json.Unmarshal(output, &probeOutput); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &probeOutput, nil
}

// NeedsTranscode reports whether path must go through ffmpeg to become f.
// An unreadable file always needs it.
func (p *Prober) NeedsTranscode(ctx context.Context, path string, f media.Format) bool {
	out, err := p.Probe(ctx, path)
	if err != nil {
		return true
	}
	return !f.MatchesCodec(out.AudioCodec())
}
