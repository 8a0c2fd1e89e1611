package converter

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mediaconv/internal/app/acquisition"
	"mediaconv/internal/app/audio"
	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/testutil"
)

type pipeline struct {
	acquirer   *testutil.MockAcquirer
	resolver   *testutil.MockResolver
	transcoder *testutil.MockTranscoder
	prober     *testutil.MockProber
	tagger     *testutil.MockTagger
	store      *testutil.MockArtifactStore

	mu       sync.Mutex
	observed []error
	workDir  string
}

func newPipeline(t *testing.T) (*pipeline, *Converter) {
	t.Helper()
	p := &pipeline{
		acquirer:   new(testutil.MockAcquirer),
		resolver:   new(testutil.MockResolver),
		transcoder: new(testutil.MockTranscoder),
		prober:     new(testutil.MockProber),
		tagger:     new(testutil.MockTagger),
		store:      new(testutil.MockArtifactStore),
		workDir:    filepath.Join(t.TempDir(), "work"),
	}
	c, err := NewConverter(Deps{
		Acquirer:   p.acquirer,
		Resolver:   p.resolver,
		Transcoder: p.transcoder,
		Prober:     p.prober,
		Tagger:     p.tagger,
		Store:      p.store,
		WorkDir:    p.workDir,
		Observer: func(_ model.SourceKind, err error, _ time.Duration) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.observed = append(p.observed, err)
		},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p, c
}

func (p *pipeline) assertExpectations(t *testing.T) {
	p.acquirer.AssertExpectations(t)
	p.resolver.AssertExpectations(t)
	p.transcoder.AssertExpectations(t)
	p.prober.AssertExpectations(t)
	p.tagger.AssertExpectations(t)
	p.store.AssertExpectations(t)
}

func remoteRequest(format string) model.ConversionRequest {
	return model.ConversionRequest{
		Kind:     model.SourceRemote,
		Format:   format,
		Locator:  testutil.SampleLocator,
		Identity: testutil.FreshUser,
	}
}

func TestConvertRemoteNoTranscodeNeeded(t *testing.T) {
	p, c := newPipeline(t)
	meta := testutil.SampleMetadata()

	p.resolver.On("Resolve", mock.Anything, testutil.SampleLocator).Return(meta, nil)
	p.acquirer.SucceedWith("ytdlp")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.MP3).Return(false)
	p.tagger.On("Tag", mock.Anything, media.MP3, audio.Tags{Title: meta.Title, Artist: meta.Channel}).Return(nil)
	p.store.Accept()

	var stages []Stage
	res, err := c.ConvertRemote(context.Background(), remoteRequest("mp3"), func(s Stage) { stages = append(stages, s) })
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up.mp3", res.Filename)
	assert.Equal(t, media.MP3, res.Format)
	assert.Equal(t, "ytdlp", res.Strategy)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, meta, res.Metadata)
	assert.Equal(t, RemoteStages, stages)
	p.transcoder.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	storedPath := p.store.Calls[0].Arguments.String(1)
	assert.True(t, strings.HasPrefix(storedPath, p.workDir))
	assert.True(t, strings.HasSuffix(storedPath, "-ytdlp.mp3"))
	assert.Equal(t, []error{nil}, p.observed)
	p.assertExpectations(t)
}

func TestConvertRemoteTranscodesWhenCodecDiffers(t *testing.T) {
	p, c := newPipeline(t)

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(testutil.SampleMetadata(), nil)
	p.acquirer.SucceedWith("stream")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.FLAC).Return(true)
	p.transcoder.On("Transcode", mock.Anything,
		mock.MatchedBy(func(in string) bool { return strings.HasSuffix(in, "-stream.flac") }),
		mock.MatchedBy(func(out string) bool { return strings.HasSuffix(out, "-final.flac") }),
		media.FLAC).Return(nil)
	p.tagger.On("Tag", mock.Anything, media.FLAC, mock.Anything).Return(nil)
	p.store.Accept()

	res, err := c.ConvertRemote(context.Background(), remoteRequest("flac"), nil)
	require.NoError(t, err)
	assert.Equal(t, "stream", res.Strategy)

	in := p.transcoder.Calls[0].Arguments.String(1)
	assert.False(t, testutil.Exists(in), "acquired file is consumed by the transcoder")
	p.assertExpectations(t)
}

func TestConvertRemoteMetadataFailureUsesDefaultTitle(t *testing.T) {
	p, c := newPipeline(t)

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("preview unavailable"))
	p.acquirer.SucceedWith("ytdlp")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.WAV).Return(false)
	p.store.Accept()

	res, err := c.ConvertRemote(context.Background(), remoteRequest("wav"), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle+".wav", res.Filename)
	assert.Nil(t, res.Metadata)
	p.tagger.AssertNotCalled(t, "Tag", mock.Anything, mock.Anything, mock.Anything)
	p.assertExpectations(t)
}

func TestConvertRemoteSanitizesTitle(t *testing.T) {
	p, c := newPipeline(t)
	meta := &model.Metadata{Title: `a/b\c:*?"<>|`}

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(meta, nil)
	p.acquirer.SucceedWith("ytdlp")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.MP3).Return(false)
	p.tagger.On("Tag", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	p.store.Accept()

	res, err := c.ConvertRemote(context.Background(), remoteRequest("mp3"), nil)
	require.NoError(t, err)
	assert.Equal(t, "abc.mp3", res.Filename)
}

func TestConvertRemoteTagFailureIsNotFatal(t *testing.T) {
	p, c := newPipeline(t)

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(testutil.SampleMetadata(), nil)
	p.acquirer.SucceedWith("ytdlp")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.MP3).Return(false)
	p.tagger.On("Tag", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bad frame"))
	p.store.Accept()

	_, err := c.ConvertRemote(context.Background(), remoteRequest("mp3"), nil)
	assert.NoError(t, err)
}

func TestConvertRemoteAcquisitionUnavailable(t *testing.T) {
	p, c := newPipeline(t)
	unavailable := apperrors.New(apperrors.KindAcquisitionUnavailable, acquisition.MsgUnavailable)

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(testutil.SampleMetadata(), nil)
	p.acquirer.On("Acquire", mock.Anything, mock.Anything, "mp3", mock.Anything).Return(nil, unavailable)

	_, err := c.ConvertRemote(context.Background(), remoteRequest("mp3"), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAcquisitionUnavailable, apperrors.KindOf(err))
	p.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, p.observed, 1)
	assert.ErrorIs(t, p.observed[0], unavailable)
}

func TestConvertRemoteInvalidFormat(t *testing.T) {
	p, c := newPipeline(t)

	_, err := c.ConvertRemote(context.Background(), remoteRequest("ogg"), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	p.acquirer.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestConvertRemoteTranscodeFailure(t *testing.T) {
	p, c := newPipeline(t)
	failed := apperrors.New(apperrors.KindConversionFailed, "audio conversion failed")

	p.resolver.On("Resolve", mock.Anything, mock.Anything).Return(testutil.SampleMetadata(), nil)
	p.acquirer.SucceedWith("ytdlp")
	p.prober.On("NeedsTranscode", mock.Anything, mock.Anything, media.MP3).Return(true)
	p.transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything, media.MP3).Return(failed)

	_, err := c.ConvertRemote(context.Background(), remoteRequest("mp3"), nil)
	assert.ErrorIs(t, err, failed)
	p.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	matches, globErr := filepath.Glob(filepath.Join(p.workDir, "*"))
	require.NoError(t, globErr)
	assert.Empty(t, matches, "no partial output left in the work dir")
}

func TestConvertUpload(t *testing.T) {
	p, c := newPipeline(t)
	upload := testutil.WriteFile(t, t.TempDir(), "abc-holiday clip.mp4", "video")

	p.transcoder.On("Transcode", mock.Anything, upload, mock.Anything, media.WAV).Return(nil)
	p.store.Accept()

	var stages []Stage
	res, err := c.ConvertUpload(context.Background(), model.ConversionRequest{
		Kind:         model.SourceUpload,
		Format:       "wav",
		Locator:      upload,
		OriginalName: "holiday clip.mp4",
	}, func(s Stage) { stages = append(stages, s) })
	require.NoError(t, err)

	assert.Equal(t, "holiday clip.wav", res.Filename)
	assert.Equal(t, StrategyUpload, res.Strategy)
	assert.Equal(t, UploadStages, stages)
	assert.False(t, testutil.Exists(upload))
	p.assertExpectations(t)
}

func TestConvertUploadInvalidFormatRemovesUpload(t *testing.T) {
	p, c := newPipeline(t)
	upload := testutil.WriteFile(t, t.TempDir(), "clip.mp4", "video")

	_, err := c.ConvertUpload(context.Background(), model.ConversionRequest{
		Kind:    model.SourceUpload,
		Format:  "aac",
		Locator: upload,
	}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)
	assert.False(t, testutil.Exists(upload))
	p.transcoder.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNewConverterCreatesWorkDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewConverter(Deps{WorkDir: dir}, nil)
	require.NoError(t, err)
	assert.True(t, testutil.Exists(dir))
}
