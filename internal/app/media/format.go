// Package media holds the target formats the pipeline can produce and the
// ffmpeg settings used for each of them.
package media

import (
	"strings"

	"github.com/samber/lo"

	apperrors "mediaconv/internal/app/errors"
)

// Format is a target container/codec.
type Format string

const (
	MP3  Format = "mp3"
	WAV  Format = "wav"
	FLAC Format = "flac"
)

// Default is used when a request does not name a format.
const Default = MP3

// Encoding is the ffmpeg codec and bitrate for a Format.
type Encoding struct {
	Codec   string
	Bitrate string
}

var encodings = map[Format]Encoding{
	MP3:  {Codec: "libmp3lame", Bitrate: "192k"},
	WAV:  {Codec: "pcm_s16le", Bitrate: "1411k"},
	FLAC: {Codec: "flac", Bitrate: "320k"}, // nominal, flac ignores it
}

// probeCodecs maps a Format to the codec name ffprobe reports for it.
var probeCodecs = map[Format]string{
	MP3:  "mp3",
	WAV:  "pcm_s16le",
	FLAC: "flac",
}

// Supported lists the formats in display order.
func Supported() []Format {
	return []Format{MP3, WAV, FLAC}
}

// Parse normalizes s and rejects anything outside the supported set. An
// empty string selects Default.
func Parse(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	f := Format(s)
	if !lo.Contains(Supported(), f) {
		return "", apperrors.ErrInvalidFormat.WithSuggestions("Use one of: mp3, wav, flac")
	}
	return f, nil
}

// Encoding returns the ffmpeg settings for f.
func (f Format) Encoding() Encoding {
	return encodings[f]
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// MatchesCodec reports whether a probed audio codec already satisfies f.
func (f Format) MatchesCodec(codec string) bool {
	return codec != "" && probeCodecs[f] == codec
}

func (f Format) String() string {
	return string(f)
}
