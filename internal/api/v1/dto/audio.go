package dto

import (
	"time"

	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
)

// ConvertYouTubeRequest is the body of POST /audio/youtube.
type ConvertYouTubeRequest struct {
	URL    string `json:"url" binding:"required"`
	Format string `json:"format,omitempty"`
}

// Validate checks the locator and format before any entitlement is spent.
func (r *ConvertYouTubeRequest) Validate() error {
	url, err := media.ValidateLocator(r.URL)
	if err != nil {
		return err
	}
	r.URL = url

	f, err := media.Parse(r.Format)
	if err != nil {
		return err
	}
	r.Format = f.String()
	return nil
}

// ConvertUploadForm holds the non-file fields of POST /audio/video.
type ConvertUploadForm struct {
	Format string `form:"format"`
}

// Validate normalizes the requested format.
func (r *ConvertUploadForm) Validate() error {
	f, err := media.Parse(r.Format)
	if err != nil {
		return err
	}
	r.Format = f.String()
	return nil
}

// UploadedFile is an upload already persisted to the work directory.
type UploadedFile struct {
	Path         string
	OriginalName string
	Format       string
}

// ConvertResponse is returned by both submit endpoints.
type ConvertResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ArtifactID  string `json:"artifact_id"`
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	Strategy    string `json:"strategy,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// PreviewQuery is the query of GET /audio/youtube/preview.
type PreviewQuery struct {
	URL string `form:"url" binding:"required"`
}

// Validate checks the locator.
func (q *PreviewQuery) Validate() error {
	url, err := media.ValidateLocator(q.URL)
	if err != nil {
		return err
	}
	q.URL = url
	return nil
}

// PreviewResponse is the preview metadata. Fallback is "oembed" when the
// primary source failed.
type PreviewResponse = model.Metadata

// EntitlementResponse describes the caller's remaining quota.
type EntitlementResponse struct {
	ID                string    `json:"id"`
	FreeUsesRemaining int       `json:"free_uses_remaining"`
	CreditBalance     int64     `json:"credit_balance"`
	Unlimited         bool      `json:"unlimited"`
	CostPerUse        int64     `json:"cost_per_use"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewEntitlementResponse converts a stored entitlement.
func NewEntitlementResponse(e *model.Entitlement, cost int64) *EntitlementResponse {
	return &EntitlementResponse{
		ID:                e.ID,
		FreeUsesRemaining: e.FreeUsesRemaining,
		CreditBalance:     e.CreditBalance,
		Unlimited:         e.Unlimited,
		CostPerUse:        cost,
		UpdatedAt:         e.UpdatedAt,
	}
}
