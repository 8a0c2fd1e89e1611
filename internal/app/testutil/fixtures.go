package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediaconv/internal/app/model"
)

// Fixed identities used across tests.
const (
	FreshUser     = "user-fresh"
	FundedUser    = "user-funded"
	ExhaustedUser = "user-exhausted"
	ProUser       = "user-pro"
)

// FixtureTime is the updated_at of every fixture entitlement.
var FixtureTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

// Entitlements returns one record per quota state.
func Entitlements() []model.Entitlement {
	return []model.Entitlement{
		{ID: FreshUser, FreeUsesRemaining: 3, UpdatedAt: FixtureTime},
		{ID: FundedUser, CreditBalance: 120, UpdatedAt: FixtureTime},
		{ID: ExhaustedUser, CreditBalance: 49, UpdatedAt: FixtureTime},
		{ID: ProUser, Unlimited: true, UpdatedAt: FixtureTime},
	}
}

// SampleMetadata is a fully populated primary-source result.
func SampleMetadata() *model.Metadata {
	return &model.Metadata{
		Title:       "Never Gonna Give You Up",
		Channel:     "Rick Astley",
		Duration:    "3:33",
		Views:       "1.5B",
		Thumbnail:   "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		Description: "The official video",
		UploadDate:  "2009-10-25",
		VideoID:     "dQw4w9WgXcQ",
	}
}

// SampleLocator is a locator that passes validation.
const SampleLocator = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// WriteFile creates dir/name with content and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
