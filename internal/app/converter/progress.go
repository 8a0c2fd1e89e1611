package converter

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Stage is a step of the conversion pipeline.
type Stage string

const (
	StageMetadata  Stage = "metadata"
	StageAcquire   Stage = "acquire"
	StageTranscode Stage = "transcode"
	StageTag       Stage = "tag"
	StageStore     Stage = "store"
	StageDone      Stage = "done"
)

// RemoteStages and UploadStages list the stages each pipeline reports, in order.
var (
	RemoteStages = []Stage{StageMetadata, StageAcquire, StageTranscode, StageTag, StageStore, StageDone}
	UploadStages = []Stage{StageTranscode, StageStore, StageDone}
)

// Progress is called when the pipeline enters a stage. A nil Progress is valid.
type Progress func(Stage)

func (p Progress) orNop() Progress {
	if p == nil {
		return func(Stage) {}
	}
	return p
}

type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

type ProgressManager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

type ProgressBar struct {
	bar     *mpb.Bar
	enabled bool
	stage   atomic.Value
}

func NewProgressManager(config ProgressConfig) *ProgressManager {
	if !config.Enabled {
		return &ProgressManager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithRefreshRate(120*time.Millisecond),
		mpb.WithWaitGroup(&sync.WaitGroup{}),
	)

	return &ProgressManager{
		container: container,
		enabled:   true,
	}
}

// Track creates a bar for one conversion and returns the Progress callback
// that advances it through stages.
func (pm *ProgressManager) Track(description string, stages []Stage) (Progress, *ProgressBar) {
	pb := pm.CreateBar(len(stages), description)
	index := make(map[Stage]int, len(stages))
	for i, s := range stages {
		index[s] = i + 1
	}
	return func(s Stage) {
		pb.stage.Store(string(s))
		if n, ok := index[s]; ok {
			pb.SetCurrent(int64(n))
		}
	}, pb
}

func (pm *ProgressManager) CreateBar(total int, description string) *ProgressBar {
	pb := &ProgressBar{}
	pb.stage.Store("queued")
	if !pm.enabled || pm.container == nil {
		return pb
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	pb.bar = pm.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string {
				return pb.stage.Load().(string)
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.0f", decor.WCSyncSpace),
			decor.OnComplete(
				decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncWidth), " ✓ ",
			),
		),
	)
	pb.enabled = true
	return pb
}

func (pb *ProgressBar) Increment() {
	if pb.enabled && pb.bar != nil {
		pb.bar.Increment()
	}
}

func (pb *ProgressBar) SetCurrent(n int64) {
	if pb.enabled && pb.bar != nil {
		pb.bar.SetCurrent(n)
	}
}

// Stage returns the last stage reported to the bar.
func (pb *ProgressBar) Stage() string {
	return pb.stage.Load().(string)
}

// Abort stops the bar early, leaving it on screen.
func (pb *ProgressBar) Abort() {
	if pb.enabled && pb.bar != nil {
		pb.bar.Abort(false)
	}
}

func (pb *ProgressBar) Complete() {
	if pb.enabled && pb.bar != nil {
		pb.bar.SetTotal(pb.bar.Current(), true)
	}
}

func (pm *ProgressManager) Wait() {
	if pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

func (pm *ProgressManager) Shutdown() {
	if pm.enabled && pm.container != nil {
		pm.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr) || IsTTY(os.Stdout)
}
