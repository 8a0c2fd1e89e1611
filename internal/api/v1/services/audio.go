package services

import (
	"context"

	"go.uber.org/zap"

	"mediaconv/internal/api/v1/dto"
	"mediaconv/internal/app/artifact"
	"mediaconv/internal/app/converter"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/util/files"
)

// DownloadPath is the public path prefix of artifact downloads.
const DownloadPath = "/api/v1/audio/download/"

// AudioServiceImpl implements AudioService
type AudioServiceImpl struct {
	gate      Gate
	converter Converter
	resolver  MetadataResolver
	artifacts ArtifactRetriever
	logger    *zap.Logger
}

// NewAudioService creates a new audio service
func NewAudioService(gate Gate, conv Converter, resolver MetadataResolver, artifacts ArtifactRetriever, logger *zap.Logger) AudioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioServiceImpl{
		gate:      gate,
		converter: conv,
		resolver:  resolver,
		artifacts: artifacts,
		logger:    logger,
	}
}

// ConvertYouTube admits the caller and runs the remote pipeline. req must
// already be validated. The charge is kept if the pipeline fails.
func (s *AudioServiceImpl) ConvertYouTube(ctx context.Context, identity string, req *dto.ConvertYouTubeRequest) (*dto.ConvertResponse, error) {
	decision, err := s.gate.Admit(ctx, identity)
	if err != nil {
		return nil, err
	}

	result, err := s.converter.ConvertRemote(ctx, model.ConversionRequest{
		Kind:     model.SourceRemote,
		Format:   req.Format,
		Locator:  req.URL,
		Identity: identity,
	}, nil)
	if err != nil {
		s.logger.Warn("remote conversion failed after admission",
			zap.String("identity", identity),
			zap.String("charge", string(decision.Charge)),
			zap.Error(err))
		return nil, err
	}
	return newConvertResponse("Audio converted successfully", result), nil
}

// ConvertUpload admits the caller and transcodes the stored upload. The
// upload file is removed whatever the outcome.
func (s *AudioServiceImpl) ConvertUpload(ctx context.Context, identity string, upload dto.UploadedFile) (*dto.ConvertResponse, error) {
	if _, err := s.gate.Admit(ctx, identity); err != nil {
		_ = files.RemoveQuietly(upload.Path)
		return nil, err
	}

	result, err := s.converter.ConvertUpload(ctx, model.ConversionRequest{
		Kind:         model.SourceUpload,
		Format:       upload.Format,
		Locator:      upload.Path,
		OriginalName: upload.OriginalName,
		Identity:     identity,
	}, nil)
	if err != nil {
		return nil, err
	}
	return newConvertResponse("Video converted successfully", result), nil
}

// Preview resolves metadata without charging the caller.
func (s *AudioServiceImpl) Preview(ctx context.Context, locator string) (*dto.PreviewResponse, error) {
	return s.resolver.Resolve(ctx, locator)
}

// Download hands out the artifact. The caller must Close the delivery.
func (s *AudioServiceImpl) Download(ctx context.Context, id string) (*artifact.Delivery, error) {
	return s.artifacts.Retrieve(ctx, id)
}

func newConvertResponse(message string, r *converter.Result) *dto.ConvertResponse {
	return &dto.ConvertResponse{
		Success:     true,
		Message:     message,
		ArtifactID:  r.Artifact.ID,
		DownloadURL: DownloadPath + r.Artifact.ID,
		Filename:    r.Filename,
		Format:      r.Format.String(),
		Strategy:    r.Strategy,
		Size:        r.Artifact.Size,
	}
}
