package handlers

import (
	stderrors "errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"mediaconv/internal/api/errors"
	"mediaconv/internal/api/middleware"
	"mediaconv/internal/api/v1/dto"
	"mediaconv/internal/api/v1/services"
	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/util/files"
)

// AllowedVideoTypes are the accepted upload content types.
var AllowedVideoTypes = []string{
	"video/mp4", "video/avi", "video/mov", "video/wmv", "video/flv", "video/webm", "video/mkv",
	"video/quicktime", "video/x-msvideo", "video/x-ms-wmv", "video/x-flv", "video/x-matroska",
}

// UploadConfig bounds and places uploaded files.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// AudioHandler handles conversion endpoints
type AudioHandler struct {
	service services.AudioService
	uploads UploadConfig
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(service services.AudioService, uploads UploadConfig) *AudioHandler {
	return &AudioHandler{
		service: service,
		uploads: uploads,
	}
}

// ConvertYouTube handles POST /api/v1/audio/youtube
//
// @Summary Convert a YouTube video to audio
// @Description Acquires the audio track of a YouTube video, converts it to the requested format and returns a single-use download reference. Costs one free use or one credit charge.
// @Tags audio
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConvertYouTubeRequest true "Video URL and target format (mp3, wav, flac)"
// @Success 200 {object} dto.ConvertResponse "Conversion finished"
// @Failure 400 {object} errors.APIError "Invalid URL or format"
// @Failure 401 {object} errors.APIError "Missing or invalid token"
// @Failure 402 {object} errors.APIError "No free uses or credits left"
// @Failure 404 {object} errors.APIError "Unknown identity"
// @Failure 503 {object} errors.APIError "Every download strategy failed"
// @Failure 500 {object} errors.APIError "Conversion failed"
// @Router /audio/youtube [post]
func (h *AudioHandler) ConvertYouTube(c *gin.Context) {
	var req dto.ConvertYouTubeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ConvertYouTube(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ConvertUpload handles POST /api/v1/audio/video
//
// @Summary Convert an uploaded video to audio
// @Description Extracts the audio track of an uploaded video file. The file is validated before any entitlement is charged.
// @Tags audio
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Video file (mp4, avi, mov, wmv, flv, webm, mkv), at most 100 MB"
// @Param format formData string false "Target format" Enums(mp3, wav, flac)
// @Success 200 {object} dto.ConvertResponse "Conversion finished"
// @Failure 400 {object} errors.APIError "Missing, oversized or unsupported file"
// @Failure 401 {object} errors.APIError "Missing or invalid token"
// @Failure 402 {object} errors.APIError "No free uses or credits left"
// @Failure 500 {object} errors.APIError "Conversion failed"
// @Router /audio/video [post]
func (h *AudioHandler) ConvertUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes+1<<20)

	header, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			middleware.HandleError(c, h.tooLarge())
			return
		}
		middleware.HandleError(c, errors.NewBadRequestError("No video file uploaded"))
		return
	}
	if err := h.checkUpload(header); err != nil {
		middleware.HandleError(c, err)
		return
	}

	var form dto.ConvertUploadForm
	if err := middleware.ValidateForm(c, &form); err != nil {
		middleware.HandleError(c, err)
		return
	}

	path := filepath.Join(h.uploads.Dir, uuid.NewString()+"-"+files.SafeFileName(filepath.Base(header.Filename)))
	if err := c.SaveUploadedFile(header, path); err != nil {
		middleware.HandleError(c, apperrors.Wrap(err, apperrors.KindInternal, "failed to store upload"))
		return
	}

	response, err := h.service.ConvertUpload(c.Request.Context(), middleware.GetIdentity(c), dto.UploadedFile{
		Path:         path,
		OriginalName: header.Filename,
		Format:       form.Format,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AudioHandler) checkUpload(header *multipart.FileHeader) error {
	if header.Size > h.uploads.MaxBytes {
		return h.tooLarge()
	}
	contentType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !lo.Contains(AllowedVideoTypes, strings.ToLower(contentType)) {
		return apperrors.New(apperrors.KindValidation, "unsupported video type").
			WithSuggestions("Upload an mp4, avi, mov, wmv, flv, webm or mkv file")
	}
	return nil
}

func (h *AudioHandler) tooLarge() error {
	return apperrors.Newf(apperrors.KindValidation, "file exceeds the %s upload limit",
		humanize.Bytes(uint64(h.uploads.MaxBytes))).
		WithSuggestions("Upload a shorter or more compressed video")
}

// Preview handles GET /api/v1/audio/youtube/preview
//
// @Summary Preview YouTube video metadata
// @Description Returns title, channel, duration, views and thumbnail. Falls back to oEmbed with fallback=oembed when the primary lookup fails. Free of charge.
// @Tags audio
// @Produce json
// @Param url query string true "YouTube video URL"
// @Success 200 {object} dto.PreviewResponse "Video metadata"
// @Failure 400 {object} errors.APIError "Invalid URL"
// @Failure 503 {object} errors.APIError "Preview unavailable"
// @Router /audio/youtube/preview [get]
func (h *AudioHandler) Preview(c *gin.Context) {
	var query dto.PreviewQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.Preview(c.Request.Context(), query.URL)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Download handles GET /api/v1/audio/download/:id
//
// @Summary Download a converted file
// @Description Streams the artifact once. It is deleted shortly after the download; later requests return 404.
// @Tags audio
// @Produce octet-stream
// @Param id path string true "Artifact ID"
// @Success 200 {file} binary "Audio file"
// @Failure 404 {object} errors.APIError "File not found"
// @Router /audio/download/{id} [get]
func (h *AudioHandler) Download(c *gin.Context) {
	delivery, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	defer delivery.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": delivery.Artifact.LogicalName})
	c.DataFromReader(http.StatusOK, delivery.Size, delivery.ContentType, delivery, map[string]string{
		"Content-Disposition": disposition,
	})
}
