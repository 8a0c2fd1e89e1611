package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mediaconv/cmd/mediaconv/cmd/shared"
	"mediaconv/internal/app"
	"mediaconv/internal/app/converter"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/util/files"
)

var (
	input        string
	format       string
	outputDir    string
	identity     string
	showProgress bool
)

func init() {
	Cmd.Flags().StringVarP(&input, "input", "i", "", "YouTube URL or path of a local video file")
	Cmd.Flags().StringVarP(&format, "format", "f", "mp3", "output format: mp3, wav or flac")
	Cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory the converted file is written to")
	Cmd.Flags().StringVar(&identity, "as", "", "charge the conversion to this identity's entitlement")
	Cmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "force the progress bar even without a terminal")
	_ = Cmd.MarkFlagRequired("input")
}

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one YouTube video or local file to audio",
	Long: `Convert one YouTube video or local video file to audio.

Examples:
  mediaconv convert -i "https://www.youtube.com/watch?v=dQw4w9WgXcQ" -f flac
  mediaconv convert -i ./clip.mp4 -f wav -o ./out
  mediaconv convert -i "https://youtu.be/dQw4w9WgXcQ" --as alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		application, cleanup, err := shared.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		defer drain(application)

		if identity != "" {
			decision, err := application.Gate.Admit(ctx, identity)
			if err != nil {
				return err
			}
			application.Logger.Info("conversion admitted",
				zap.String("identity", identity), zap.String("charge", string(decision.Charge)))
		}

		req, err := request(application)
		if err != nil {
			return err
		}

		pm := converter.NewProgressManager(converter.ProgressConfig{
			Enabled: converter.ShouldShowProgress(showProgress),
			Writer:  cmd.ErrOrStderr(),
		})
		stages := converter.RemoteStages
		if req.Kind == model.SourceUpload {
			stages = converter.UploadStages
		}
		progress, bar := pm.Track(filepath.Base(input), stages)

		var res *converter.Result
		if req.Kind == model.SourceUpload {
			res, err = application.Converter.ConvertUpload(ctx, req, progress)
		} else {
			res, err = application.Converter.ConvertRemote(ctx, req, progress)
		}
		if err != nil {
			bar.Abort()
			pm.Wait()
			return err
		}
		bar.Complete()
		pm.Wait()

		dst, size, err := deliver(ctx, application, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, via %s)\n", dst, humanize.Bytes(uint64(size)), res.Strategy)
		return nil
	},
}

// request copies a local input into the upload dir so the pipeline can
// consume it without touching the caller's file.
func request(application *app.Application) (model.ConversionRequest, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return model.ConversionRequest{
			Kind:     model.SourceRemote,
			Format:   format,
			Locator:  input,
			Identity: identity,
		}, nil
	}

	src, err := os.Open(input)
	if err != nil {
		return model.ConversionRequest{}, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	name := filepath.Base(input)
	staged := filepath.Join(application.Config.Artifacts.UploadDir, files.SafeFileName(name))
	dst, err := os.CreateTemp(filepath.Dir(staged), "cli-*-"+filepath.Base(staged))
	if err != nil {
		return model.ConversionRequest{}, fmt.Errorf("stage input: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = files.RemoveQuietly(dst.Name())
		return model.ConversionRequest{}, fmt.Errorf("stage input: %w", err)
	}

	return model.ConversionRequest{
		Kind:         model.SourceUpload,
		Format:       format,
		Locator:      dst.Name(),
		OriginalName: name,
		Identity:     identity,
	}, nil
}

func deliver(ctx context.Context, application *app.Application, res *converter.Result) (string, int64, error) {
	d, err := application.Artifacts.Retrieve(ctx, res.Artifact.ID)
	if err != nil {
		return "", 0, err
	}
	defer d.Close()

	if err := files.EnsureDir(outputDir); err != nil {
		return "", 0, err
	}
	dst := filepath.Join(outputDir, res.Filename)
	out, err := os.Create(dst)
	if err != nil {
		return "", 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, d)
	if err != nil {
		return "", 0, fmt.Errorf("write output: %w", err)
	}
	return dst, n, nil
}

// drain runs the artifact deletion scheduled by delivery before exiting.
func drain(application *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), application.Config.Artifacts.GracePeriod+10*time.Second)
	defer cancel()
	if err := application.Executor.Shutdown(ctx); err != nil {
		application.Logger.Warn("pending deletions did not finish", zap.Error(err))
	}
}
