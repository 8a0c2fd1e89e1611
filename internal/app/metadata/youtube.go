package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/kkdai/youtube/v2"

	"mediaconv/internal/app/model"
)

// descriptionLimit is the number of characters kept from a description.
const descriptionLimit = 200

// VideoFetcher is the part of *youtube.Client the YouTube source needs.
type VideoFetcher interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
}

// YouTubeSource reads full video details through the YouTube client.
type YouTubeSource struct {
	client VideoFetcher
}

func NewYouTubeSource(client VideoFetcher) *YouTubeSource {
	return &YouTubeSource{client: client}
}

func (s *YouTubeSource) Lookup(ctx context.Context, locator string) (*model.Metadata, error) {
	video, err := s.client.GetVideoContext(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("get video info: %w", err)
	}
	return FromVideo(video), nil
}

// FromVideo converts a client video into display metadata.
func FromVideo(v *youtube.Video) *model.Metadata {
	meta := &model.Metadata{
		Title:       v.Title,
		Channel:     v.Author,
		Duration:    FormatDuration(v.Duration),
		Views:       FormatViews(int64(v.Views)),
		Description: TruncateDescription(v.Description),
		VideoID:     v.ID,
	}
	if meta.Channel == "" {
		meta.Channel = "Unknown Channel"
	}
	if n := len(v.Thumbnails); n > 0 {
		meta.Thumbnail = v.Thumbnails[n-1].URL
	}
	if !v.PublishDate.IsZero() {
		meta.UploadDate = v.PublishDate.Format("2006-01-02")
	}
	return meta
}

// FormatDuration renders d as H:MM:SS, or M:SS below an hour.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatViews renders a view count as 1.5M, 10.2K or the plain number.
func FormatViews(views int64) string {
	switch {
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	case views < 0:
		return "0"
	default:
		return fmt.Sprintf("%d", views)
	}
}

// TruncateDescription keeps the first 200 characters followed by "...".
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) > descriptionLimit {
		runes = runes[:descriptionLimit]
	}
	return string(runes) + "..."
}
