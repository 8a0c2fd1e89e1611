package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration. Timeouts, quota cap and
// per-use cost live here and are injected into the components that need them.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Usage     UsageConfig     `yaml:"usage"`
	Store     StoreConfig     `yaml:"store"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Janitor   JanitorConfig   `yaml:"janitor"`
}

// ServerConfig represents API server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	Environment    string        `yaml:"environment"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	// MaxUploadSize is a humanized byte size such as "100MB".
	MaxUploadSize string `yaml:"max_upload_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// UsageConfig controls the Usage Gate.
type UsageConfig struct {
	FreeUseCap int   `yaml:"free_use_cap"`
	CostPerUse int64 `yaml:"cost_per_use"`
}

// StoreConfig selects the entitlement store: memory, sqlite, postgres or redis.
type StoreConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// PipelineConfig controls acquisition and transcoding.
type PipelineConfig struct {
	YtDlpPath       string        `yaml:"ytdlp_path"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	FFprobePath     string        `yaml:"ffprobe_path"`
	PrimaryTimeout  time.Duration `yaml:"primary_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	MaxFileSize     string        `yaml:"max_file_size"`
	UserAgent       string        `yaml:"user_agent"`
	AcceptLanguage  string        `yaml:"accept_language"`
	TagOutput       bool          `yaml:"tag_output"`
}

// MetadataConfig controls the Metadata Resolver.
type MetadataConfig struct {
	PrimaryTimeout  time.Duration `yaml:"primary_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	OEmbedEndpoint  string        `yaml:"oembed_endpoint"`
}

// ArtifactsConfig controls the Artifact Store.
type ArtifactsConfig struct {
	Dir         string        `yaml:"dir"`
	UploadDir   string        `yaml:"upload_dir"`
	GracePeriod time.Duration `yaml:"grace_period"`
	TTL         time.Duration `yaml:"ttl"`
	Backend     string        `yaml:"backend"`
	MinIO       MinIOConfig   `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// JanitorConfig controls the debug-residue sweep.
type JanitorConfig struct {
	Dir      string        `yaml:"dir"`
	Pattern  string        `yaml:"pattern"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "5000",
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  2 * time.Minute,
			Environment:  "development",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:5174",
			},
			MaxUploadSize: "100MB",
		},
		Log:   LogConfig{Level: "info"},
		Usage: UsageConfig{FreeUseCap: 3, CostPerUse: 50},
		Store: StoreConfig{Driver: "sqlite", DSN: "data/mediaconv.db"},
		Pipeline: PipelineConfig{
			YtDlpPath:       "yt-dlp",
			FFmpegPath:      "ffmpeg",
			FFprobePath:     "ffprobe",
			PrimaryTimeout:  2 * time.Minute,
			FallbackTimeout: 3 * time.Minute,
			MaxFileSize:     "100M",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			AcceptLanguage:  "en-US,en;q=0.9",
			TagOutput:       true,
		},
		Metadata: MetadataConfig{
			PrimaryTimeout:  6 * time.Second,
			FallbackTimeout: 4 * time.Second,
			OEmbedEndpoint:  "https://www.youtube.com/oembed",
		},
		Artifacts: ArtifactsConfig{
			Dir:         "uploads/audio/output",
			UploadDir:   "uploads/audio",
			GracePeriod: 5 * time.Second,
			TTL:         time.Hour,
			Backend:     "fs",
			MinIO: MinIOConfig{
				Endpoint: "localhost:9000",
				Bucket:   "mediaconv-artifacts",
			},
		},
		Janitor: JanitorConfig{
			Dir:      ".",
			Pattern:  `^\d+-player-script\.js$`,
			Interval: 30 * time.Second,
		},
	}
}

// Load reads path on top of the defaults. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// InitializeConfig loads .env, the YAML file and environment overrides, then
// validates the result. This is the main entry point for configuration loading.
func InitializeConfig(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MaxUploadBytes parses Server.MaxUploadSize.
func (c *Config) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Server.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_upload_size %q: %w", c.Server.MaxUploadSize, err)
	}
	return int64(n), nil
}

// PipelineBudget is the longest a remote conversion can spend resolving
// metadata and acquiring audio before transcoding starts.
func (c *Config) PipelineBudget() time.Duration {
	return c.Metadata.PrimaryTimeout + c.Metadata.FallbackTimeout +
		c.Pipeline.PrimaryTimeout + c.Pipeline.FallbackTimeout
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
