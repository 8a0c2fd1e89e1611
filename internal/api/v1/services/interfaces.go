package services

import (
	"context"

	"mediaconv/internal/api/v1/dto"
	"mediaconv/internal/app/artifact"
	"mediaconv/internal/app/converter"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/usage"
)

// AudioService defines the interface for conversion operations
type AudioService interface {
	ConvertYouTube(ctx context.Context, identity string, req *dto.ConvertYouTubeRequest) (*dto.ConvertResponse, error)
	ConvertUpload(ctx context.Context, identity string, upload dto.UploadedFile) (*dto.ConvertResponse, error)
	Preview(ctx context.Context, locator string) (*dto.PreviewResponse, error)
	Download(ctx context.Context, id string) (*artifact.Delivery, error)
}

// EntitlementService defines the interface for quota lookups
type EntitlementService interface {
	GetEntitlement(ctx context.Context, identity string) (*dto.EntitlementResponse, error)
}

// Gate admits a request and charges the identity for it.
type Gate interface {
	Admit(ctx context.Context, identity string) (*usage.Decision, error)
	Entitlement(ctx context.Context, identity string) (*model.Entitlement, error)
	Cost() int64
}

// Converter runs the conversion pipeline.
type Converter interface {
	ConvertRemote(ctx context.Context, req model.ConversionRequest, progress converter.Progress) (*converter.Result, error)
	ConvertUpload(ctx context.Context, req model.ConversionRequest, progress converter.Progress) (*converter.Result, error)
}

// MetadataResolver fetches preview metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, locator string) (*model.Metadata, error)
}

// ArtifactRetriever hands out stored artifacts.
type ArtifactRetriever interface {
	Retrieve(ctx context.Context, id string) (*artifact.Delivery, error)
}

var (
	_ Gate              = (*usage.Gate)(nil)
	_ Converter         = (*converter.Converter)(nil)
	_ ArtifactRetriever = (*artifact.Store)(nil)
)
