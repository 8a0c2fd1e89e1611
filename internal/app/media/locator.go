package media

import (
	"regexp"
	"strings"

	apperrors "mediaconv/internal/app/errors"
)

var youtubeLocator = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)

// ValidateLocator trims raw and checks that it looks like a YouTube watch or
// short link. Only the shape is checked; the video may still not exist.
func ValidateLocator(raw string) (string, error) {
	locator := strings.TrimSpace(raw)
	if locator == "" {
		return "", apperrors.ErrMissingURL
	}
	if !youtubeLocator.MatchString(locator) {
		return "", apperrors.ErrInvalidURL.WithSuggestions("Ensure the URL is correct")
	}
	return locator, nil
}
