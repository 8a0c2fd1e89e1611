package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"mediaconv/internal/app/acquisition"
	"mediaconv/internal/app/artifact"
	"mediaconv/internal/app/audio"
	"mediaconv/internal/app/auth"
	"mediaconv/internal/app/converter"
	"mediaconv/internal/app/janitor"
	"mediaconv/internal/app/lifecycle"
	"mediaconv/internal/app/logging"
	"mediaconv/internal/app/metadata"
	"mediaconv/internal/app/metrics"
	"mediaconv/internal/app/repository"
	"mediaconv/internal/app/repository/memory"
	"mediaconv/internal/app/repository/pg"
	"mediaconv/internal/app/repository/redisstore"
	"mediaconv/internal/app/repository/sqlite"
	"mediaconv/internal/app/usage"
	"mediaconv/internal/app/ytclient"
	"mediaconv/internal/config"
)

// Application holds every long-lived component of the service.
type Application struct {
	Config    *config.Config
	Logger    *zap.Logger
	Executor  *lifecycle.Executor
	Store     repository.EntitlementDAO
	Gate      *usage.Gate
	Verifier  *auth.Verifier
	Resolver  *metadata.Resolver
	Converter *converter.Converter
	Artifacts *artifact.Store
	Janitor   *janitor.Janitor
	Metrics   *metrics.Metrics
}

// ProviderSet builds an Application from a *config.Config.
var ProviderSet = wire.NewSet(
	provideLogger,
	provideEntitlementStore,
	lifecycle.NewExecutor,
	metrics.New,
	provideSignature,
	provideYouTubeClient,
	provideResolver,
	provideChain,
	provideBackend,
	provideArtifactStore,
	provideConverter,
	provideGate,
	provideVerifier,
	provideJanitor,
	wire.Struct(new(Application), "*"),
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.NewLogger(!cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideEntitlementStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.EntitlementDAO, func(), error) {
	return OpenEntitlementStore(ctx, cfg.Store, logger)
}

// OpenEntitlementStore opens the store selected by sc.Driver. The cleanup
// closes it.
func OpenEntitlementStore(ctx context.Context, sc config.StoreConfig, logger *zap.Logger) (repository.EntitlementDAO, func(), error) {
	var (
		store repository.EntitlementDAO
		err   error
	)
	switch sc.Driver {
	case "memory":
		store = memory.New()
	case "sqlite":
		store, err = sqlite.NewSQLiteDB(ctx, sc.DSN)
	case "postgres":
		store, err = pg.Open(ctx, sc.DSN)
	case "redis":
		store, err = redisstore.Open(ctx, redisstore.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
	default:
		err = fmt.Errorf("unknown store driver %q", sc.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open entitlement store: %w", err)
	}

	logger.Info("entitlement store ready", zap.String("driver", sc.Driver))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing entitlement store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func provideSignature(cfg *config.Config) ytclient.Signature {
	return ytclient.Signature{
		UserAgent:      cfg.Pipeline.UserAgent,
		AcceptLanguage: cfg.Pipeline.AcceptLanguage,
	}
}

func provideYouTubeClient(sig ytclient.Signature) *youtube.Client {
	return ytclient.New(sig)
}

func provideResolver(cfg *config.Config, client *youtube.Client, sig ytclient.Signature, logger *zap.Logger) *metadata.Resolver {
	oembed := metadata.NewOEmbedSource(cfg.Metadata.OEmbedEndpoint, ytclient.NewHTTPClient(sig, cfg.Metadata.FallbackTimeout))
	return metadata.NewResolver(
		metadata.NewYouTubeSource(client),
		oembed,
		cfg.Metadata.PrimaryTimeout,
		cfg.Metadata.FallbackTimeout,
		logger.Named("metadata"),
	)
}

// provideChain orders the acquisition strategies: yt-dlp first, then the
// in-process stream client piped through ffmpeg.
func provideChain(cfg *config.Config, client *youtube.Client, m *metrics.Metrics, logger *zap.Logger) *acquisition.Chain {
	return acquisition.NewChain(
		logger.Named("acquisition"),
		m.ObserveAttempt,
		acquisition.NewYtDlp(cfg.Pipeline.YtDlpPath, cfg.Pipeline.MaxFileSize, cfg.Pipeline.PrimaryTimeout),
		acquisition.NewStream(client, cfg.Pipeline.FFmpegPath, cfg.Pipeline.FallbackTimeout),
	)
}

func provideBackend(ctx context.Context, cfg *config.Config) (artifact.Backend, error) {
	switch cfg.Artifacts.Backend {
	case "minio":
		mc := cfg.Artifacts.MinIO
		return artifact.NewMinIOBackend(ctx, artifact.MinIOConfig{
			Endpoint:  mc.Endpoint,
			AccessKey: mc.AccessKey,
			SecretKey: mc.SecretKey,
			Bucket:    mc.Bucket,
			UseSSL:    mc.UseSSL,
		})
	case "fs", "":
		return artifact.NewFSBackend(cfg.Artifacts.Dir)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Artifacts.Backend)
	}
}

// provideArtifactStore indexes whatever the backend still holds from a
// previous run so the janitor can expire it.
func provideArtifactStore(ctx context.Context, cfg *config.Config, backend artifact.Backend, executor *lifecycle.Executor, m *metrics.Metrics, logger *zap.Logger) (*artifact.Store, error) {
	store := artifact.NewStore(backend, executor, cfg.Artifacts.GracePeriod, logger.Named("artifact"))
	if _, err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore artifacts: %w", err)
	}
	m.TrackArtifacts(store.Active)
	return store, nil
}

func provideConverter(cfg *config.Config, chain *acquisition.Chain, resolver *metadata.Resolver, store *artifact.Store, m *metrics.Metrics, logger *zap.Logger) (*converter.Converter, error) {
	deps := converter.Deps{
		Acquirer:   chain,
		Resolver:   resolver,
		Transcoder: audio.NewTranscoder(cfg.Pipeline.FFmpegPath, logger.Named("transcoder")),
		Prober:     audio.NewProber(cfg.Pipeline.FFprobePath),
		Store:      store,
		Observer:   m.ObserveConversion,
		WorkDir:    cfg.Artifacts.UploadDir,
	}
	if cfg.Pipeline.TagOutput {
		deps.Tagger = audio.NewTagger()
	}
	return converter.NewConverter(deps, logger.Named("converter"))
}

func provideGate(cfg *config.Config, store repository.EntitlementDAO, m *metrics.Metrics, logger *zap.Logger) *usage.Gate {
	gate := usage.NewGate(store, cfg.Usage.FreeUseCap, cfg.Usage.CostPerUse, logger.Named("usage"))
	gate.Observe(m.ObserveGate)
	return gate
}

func provideVerifier(cfg *config.Config) (*auth.Verifier, error) {
	return auth.NewVerifier(cfg.Auth.JWTSecret)
}

func provideJanitor(cfg *config.Config, store *artifact.Store, m *metrics.Metrics, logger *zap.Logger) (*janitor.Janitor, error) {
	return janitor.New(janitor.Config{
		Dir:      cfg.Janitor.Dir,
		Pattern:  cfg.Janitor.Pattern,
		WorkDir:  cfg.Artifacts.UploadDir,
		TTL:      cfg.Artifacts.TTL,
		Interval: cfg.Janitor.Interval,
	}, store, m.ObserveSweep, logger.Named("janitor"))
}
