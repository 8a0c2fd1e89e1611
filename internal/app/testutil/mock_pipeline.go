package testutil

import (
	"context"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"mediaconv/internal/app/acquisition"
	"mediaconv/internal/app/audio"
	"mediaconv/internal/app/media"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/util/files"
)

// AcquireFunc computes an Acquire result from the call's base and format.
type AcquireFunc func(base, format string) (*acquisition.Result, error)

// MockAcquirer is a testify mock of the acquisition chain.
type MockAcquirer struct {
	mock.Mock
}

func (m *MockAcquirer) Acquire(ctx context.Context, locator, format, base string) (*acquisition.Result, error) {
	args := m.Called(ctx, locator, format, base)
	if fn, ok := args.Get(0).(AcquireFunc); ok {
		return fn(base, format)
	}
	res, _ := args.Get(0).(*acquisition.Result)
	return res, args.Error(1)
}

// SucceedWith expects one Acquire call that writes <base>-<strategy>.<format>
// and reports it as acquired by strategy.
func (m *MockAcquirer) SucceedWith(strategy string) *mock.Call {
	return m.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(AcquireFunc(func(base, format string) (*acquisition.Result, error) {
			f, err := media.Parse(format)
			if err != nil {
				return nil, err
			}
			path := base + "-" + strategy + f.Ext()
			if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
				return nil, err
			}
			return &acquisition.Result{
				Path:     path,
				Format:   f,
				Strategy: strategy,
				Attempts: []acquisition.Attempt{{Strategy: strategy, Outcome: acquisition.OutcomeSuccess, Path: path}},
			}, nil
		}), nil).Once()
}

// MockResolver is a testify mock of the metadata resolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, locator string) (*model.Metadata, error) {
	args := m.Called(ctx, locator)
	meta, _ := args.Get(0).(*model.Metadata)
	return meta, args.Error(1)
}

// MockTranscoder mirrors the real transcoder's file handling: on success it
// writes output, and the input is removed either way.
type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Transcode(ctx context.Context, input, output string, f media.Format) error {
	args := m.Called(ctx, input, output, f)
	defer func() { _ = files.RemoveQuietly(input) }()
	if err := args.Error(0); err != nil {
		return err
	}
	return os.WriteFile(output, []byte("transcoded"), 0o644)
}

// MockProber is a testify mock of the ffprobe wrapper.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) NeedsTranscode(ctx context.Context, path string, f media.Format) bool {
	return m.Called(ctx, path, f).Bool(0)
}

// MockTagger is a testify mock of the ID3 tagger.
type MockTagger struct {
	mock.Mock
}

func (m *MockTagger) Tag(path string, f media.Format, tags audio.Tags) error {
	return m.Called(path, f, tags).Error(0)
}

// MockArtifactStore is a testify mock of the artifact store.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, localPath, logicalName string, f media.Format) (*model.Artifact, error) {
	args := m.Called(ctx, localPath, logicalName, f)
	if fn, ok := args.Get(0).(func(string, string, media.Format) (*model.Artifact, error)); ok {
		return fn(localPath, logicalName, f)
	}
	a, _ := args.Get(0).(*model.Artifact)
	return a, args.Error(1)
}

// Accept expects Put calls that succeed with an artifact named after the
// logical name. The local file is removed as the real store would move it.
func (m *MockArtifactStore) Accept() *mock.Call {
	return m.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(localPath, logicalName string, f media.Format) (*model.Artifact, error) {
			info, err := os.Stat(localPath)
			if err != nil {
				return nil, err
			}
			_ = files.RemoveQuietly(localPath)
			name := files.SafeFileName(logicalName) + f.Ext()
			return &model.Artifact{
				ID:          "artifact-" + name,
				LogicalName: name,
				Format:      f.String(),
				Size:        info.Size(),
				CreatedAt:   time.Now(),
			}, nil
		}, nil)
}
