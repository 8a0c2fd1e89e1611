package serve

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mediaconv/cmd/mediaconv/cmd/shared"
	"mediaconv/internal/api/server"
)

var drainTimeout time.Duration

func init() {
	Cmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 30*time.Second,
		"how long pending artifact deletions may take on shutdown")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API together with the janitor.

On SIGINT or SIGTERM the server stops accepting requests, the janitor stops,
and every scheduled artifact deletion runs before the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, cleanup, err := shared.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		logger := application.Logger

		srv, err := server.New(application)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx) })
		g.Go(func() error { return application.Janitor.Run(gctx) })
		runErr := g.Wait()

		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := application.Executor.Shutdown(drainCtx); err != nil {
			logger.Warn("pending deletions did not finish", zap.Error(err))
		}

		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("server stopped with error", zap.Error(runErr))
			return runErr
		}
		logger.Info("server stopped")
		return nil
	},
}
