package test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mediaconv/internal/api/middleware"
	"mediaconv/internal/api/v1/dto"
	"mediaconv/internal/api/v1/handlers"
	"mediaconv/internal/api/v1/routes"
	"mediaconv/internal/api/v1/services"
	"mediaconv/internal/app/acquisition"
	"mediaconv/internal/app/artifact"
	"mediaconv/internal/app/auth"
	"mediaconv/internal/app/converter"
	"mediaconv/internal/app/lifecycle"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository/memory"
	"mediaconv/internal/app/testutil"
	"mediaconv/internal/app/usage"
)

const grace = 30 * time.Millisecond

// scriptedStrategy either fails with err or writes content to the job output.
type scriptedStrategy struct {
	name  string
	err   error
	calls atomic.Int32
}

func (s *scriptedStrategy) Name() string           { return s.name }
func (s *scriptedStrategy) Timeout() time.Duration { return time.Second }

func (s *scriptedStrategy) Acquire(_ context.Context, job acquisition.Job) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	out := job.Output()
	if err := os.WriteFile(out, []byte("ID3 fake audio bytes"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

type stack struct {
	router     *gin.Engine
	store      *memory.Store
	artifacts  *artifact.Store
	executor   *lifecycle.Executor
	verifier   *auth.Verifier
	transcoder *testutil.MockTranscoder
	outputDir  string
}

func newStack(t *testing.T, strategies ...acquisition.Strategy) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()

	store := memory.New(
		model.Entitlement{ID: "two-free", FreeUsesRemaining: 2},
		model.Entitlement{ID: "broke"},
		model.Entitlement{ID: "pro", Unlimited: true},
	)
	gate := usage.NewGate(store, 3, 50, logger)

	executor := lifecycle.NewExecutor(logger)
	t.Cleanup(func() { _ = executor.Shutdown(context.Background()) })

	outputDir := filepath.Join(dir, "output")
	backend, err := artifact.NewFSBackend(outputDir)
	require.NoError(t, err)
	artifacts := artifact.NewStore(backend, executor, grace, logger)

	resolver := new(testutil.MockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(testutil.SampleMetadata(), nil)
	prober := new(testutil.MockProber)
	prober.On("NeedsTranscode", mock.Anything, mock.Anything, mock.Anything).Return(false)
	transcoder := new(testutil.MockTranscoder)

	conv, err := converter.NewConverter(converter.Deps{
		Acquirer:   acquisition.NewChain(logger, nil, strategies...),
		Resolver:   resolver,
		Transcoder: transcoder,
		Prober:     prober,
		Store:      artifacts,
		WorkDir:    filepath.Join(dir, "work"),
	}, logger)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier("test-secret")
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.ErrorHandler(logger))
	routes.RegisterRoutes(router.Group("/api/v1"), &routes.ServiceContainer{
		AudioService:       services.NewAudioService(gate, conv, resolver, artifacts, logger),
		EntitlementService: services.NewEntitlementService(gate),
		Verifier:           verifier,
		Uploads:            handlers.UploadConfig{Dir: filepath.Join(dir, "work"), MaxBytes: 1 << 10},
	})

	return &stack{
		router:     router,
		store:      store,
		artifacts:  artifacts,
		executor:   executor,
		verifier:   verifier,
		transcoder: transcoder,
		outputDir:  outputDir,
	}
}

func (s *stack) token(t *testing.T, identity string) string {
	t.Helper()
	tok, err := s.verifier.Issue(identity, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *stack) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *stack) submit(t *testing.T, identity string, body dto.ConvertYouTubeRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audio/youtube", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set("Authorization", s.token(t, identity))
	}
	return s.do(req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRemoteConversionConsumesFreeUseAndDeliversOnce(t *testing.T) {
	primary := &scriptedStrategy{name: "ytdlp"}
	fallback := &scriptedStrategy{name: "stream"}
	s := newStack(t, primary, fallback)

	rec := s.submit(t, "two-free", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator, Format: "mp3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Audio converted successfully", resp.Message)
	assert.Equal(t, "Never Gonna Give You Up.mp3", resp.Filename)
	assert.Equal(t, "mp3", resp.Format)
	assert.Equal(t, "ytdlp", resp.Strategy)
	assert.Equal(t, services.DownloadPath+resp.ArtifactID, resp.DownloadURL)
	assert.Equal(t, int32(0), fallback.calls.Load())

	e, err := s.store.Get(context.Background(), "two-free")
	require.NoError(t, err)
	assert.Equal(t, 1, e.FreeUsesRemaining)

	first := s.do(httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.NotEmpty(t, first.Body.Bytes())
	assert.Equal(t, "audio/mpeg", first.Header().Get("Content-Type"))
	assert.Contains(t, first.Header().Get("Content-Disposition"), "attachment")

	time.Sleep(grace)
	second := s.do(httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, second.Code)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(s.outputDir, resp.ArtifactID))
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}

func TestRemoteConversionExhaustedEntitlement(t *testing.T) {
	primary := &scriptedStrategy{name: "ytdlp"}
	s := newStack(t, primary)

	rec := s.submit(t, "broke", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator, Format: "mp3"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "entitlement_exhausted", decodeBody(t, rec)["kind"])
	assert.Equal(t, int32(0), primary.calls.Load())
	assert.Equal(t, 0, s.artifacts.Active())

	e, err := s.store.Get(context.Background(), "broke")
	require.NoError(t, err)
	assert.Equal(t, 0, e.FreeUsesRemaining)
	assert.Equal(t, int64(0), e.CreditBalance)
}

func TestRemoteConversionFallsBackSilently(t *testing.T) {
	primary := &scriptedStrategy{name: "ytdlp", err: errors.New("ERROR: Sign in to confirm you're not a bot")}
	fallback := &scriptedStrategy{name: "stream"}
	s := newStack(t, primary, fallback)

	rec := s.submit(t, "pro", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator, Format: "mp3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "Sign in")

	var resp dto.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "stream", resp.Strategy)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())

	e, err := s.store.Get(context.Background(), "pro")
	require.NoError(t, err)
	assert.True(t, e.Unlimited)
	assert.Equal(t, 0, e.FreeUsesRemaining)
}

func TestRemoteConversionAllStrategiesFail(t *testing.T) {
	primary := &scriptedStrategy{name: "ytdlp", err: errors.New("HTTP Error 403: Forbidden")}
	fallback := &scriptedStrategy{name: "stream", err: errors.New("status code: 403")}
	s := newStack(t, primary, fallback)

	rec := s.submit(t, "two-free", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator, Format: "mp3"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "acquisition_unavailable", body["kind"])
	assert.Equal(t, acquisition.MsgForbidden, body["message"])
	assert.NotEmpty(t, body["suggestions"])
	assert.NotContains(t, rec.Body.String(), "HTTP Error")

	e, err := s.store.Get(context.Background(), "two-free")
	require.NoError(t, err)
	assert.Equal(t, 1, e.FreeUsesRemaining, "failed conversions are not refunded")
}

func TestRemoteConversionValidatesBeforeCharging(t *testing.T) {
	tests := []struct {
		name string
		body dto.ConvertYouTubeRequest
	}{
		{"missing url", dto.ConvertYouTubeRequest{Format: "mp3"}},
		{"foreign url", dto.ConvertYouTubeRequest{URL: "https://vimeo.com/123", Format: "mp3"}},
		{"bad format", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator, Format: "ogg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &scriptedStrategy{name: "ytdlp"}
			s := newStack(t, primary)

			rec := s.submit(t, "two-free", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation", decodeBody(t, rec)["kind"])

			e, err := s.store.Get(context.Background(), "two-free")
			require.NoError(t, err)
			assert.Equal(t, 2, e.FreeUsesRemaining)
			assert.Equal(t, int32(0), primary.calls.Load())
		})
	}
}

func TestRemoteConversionRequiresToken(t *testing.T) {
	s := newStack(t, &scriptedStrategy{name: "ytdlp"})

	rec := s.submit(t, "", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRemoteConversionUnknownIdentity(t *testing.T) {
	s := newStack(t, &scriptedStrategy{name: "ytdlp"})

	rec := s.submit(t, "ghost", dto.ConvertYouTubeRequest{URL: testutil.SampleLocator})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadRequest(t *testing.T, s *stack, identity, filename, contentType string, content []byte, format string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if format != "" {
		require.NoError(t, w.WriteField("format", format))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/audio/video", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", s.token(t, identity))
	return req
}

func TestUploadConversion(t *testing.T) {
	s := newStack(t)
	s.transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := s.do(uploadRequest(t, s, "two-free", "holiday.mp4", "video/mp4", []byte("fake video"), "flac"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "holiday.flac", resp.Filename)
	assert.Equal(t, "flac", resp.Format)
	assert.Equal(t, converter.StrategyUpload, resp.Strategy)

	download := s.do(httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, download.Code)
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.Equal(t, "transcoded", string(body))
}

func TestUploadRejectedBeforeCharging(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		content     []byte
		format      string
	}{
		{"not a video", "text/plain", []byte("hello"), "mp3"},
		{"too large", "video/mp4", bytes.Repeat([]byte("x"), 2<<10), "mp3"},
		{"bad format", "video/mp4", []byte("video"), "aac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t)

			rec := s.do(uploadRequest(t, s, "two-free", "clip.mp4", tt.contentType, tt.content, tt.format))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			e, err := s.store.Get(context.Background(), "two-free")
			require.NoError(t, err)
			assert.Equal(t, 2, e.FreeUsesRemaining)
			s.transcoder.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPreview(t *testing.T) {
	s := newStack(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/audio/youtube/preview?url="+testutil.SampleLocator, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Never Gonna Give You Up", body["title"])
	assert.Equal(t, "Rick Astley", body["channel"])

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/audio/youtube/preview?url=https://example.com/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknownArtifact(t *testing.T) {
	s := newStack(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/audio/download/nope.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["kind"])
}

func TestEntitlementEndpoint(t *testing.T) {
	s := newStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/entitlement", nil)
	req.Header.Set("Authorization", s.token(t, "two-free"))
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.EntitlementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "two-free", resp.ID)
	assert.Equal(t, 2, resp.FreeUsesRemaining)
	assert.Equal(t, int64(50), resp.CostPerUse)
}
