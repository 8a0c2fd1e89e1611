package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

var (
	storeDrivers     = []string{"memory", "sqlite", "postgres", "redis"}
	artifactBackends = []string{"fs", "minio"}
)

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if err := ValidateQuota(c.Usage.FreeUseCap, c.Usage.CostPerUse); err != nil {
		return err
	}
	if !lo.Contains(storeDrivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q (want one of %v)", c.Store.Driver, storeDrivers)
	}
	if c.Store.Driver == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("redis store requires redis_addr")
	}
	if (c.Store.Driver == "sqlite" || c.Store.Driver == "postgres") && c.Store.DSN == "" {
		return fmt.Errorf("%s store requires dsn", c.Store.Driver)
	}
	if !lo.Contains(artifactBackends, c.Artifacts.Backend) {
		return fmt.Errorf("unknown artifact backend %q (want one of %v)", c.Artifacts.Backend, artifactBackends)
	}
	if c.Artifacts.Backend == "minio" && c.Artifacts.MinIO.Bucket == "" {
		return fmt.Errorf("minio backend requires a bucket")
	}

	for name, d := range map[string]time.Duration{
		"primary acquisition": c.Pipeline.PrimaryTimeout,
		"metadata primary":    c.Metadata.PrimaryTimeout,
		"metadata fallback":   c.Metadata.FallbackTimeout,
		"grace period":        c.Artifacts.GracePeriod,
		"janitor interval":    c.Janitor.Interval,
	} {
		if err := ValidateTimeout(d, name); err != nil {
			return err
		}
	}
	// A zero fallback timeout means the fallback is not raced.
	if c.Pipeline.FallbackTimeout < 0 {
		return fmt.Errorf("fallback acquisition timeout cannot be negative")
	}

	// a zero write timeout means none
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.PipelineBudget() {
		return fmt.Errorf("server write_timeout %s must exceed the pipeline budget %s",
			c.Server.WriteTimeout, c.PipelineBudget())
	}
	if c.Artifacts.Backend == "fs" && filepath.Clean(c.Artifacts.Dir) == filepath.Clean(c.Artifacts.UploadDir) {
		return fmt.Errorf("artifacts dir and upload_dir must differ")
	}

	if _, err := humanize.ParseBytes(c.Pipeline.MaxFileSize); err != nil {
		return fmt.Errorf("invalid max_file_size %q: %w", c.Pipeline.MaxFileSize, err)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	if _, err := regexp.Compile(c.Janitor.Pattern); err != nil {
		return fmt.Errorf("invalid janitor pattern: %w", err)
	}
	return nil
}

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 30*time.Minute {
		return fmt.Errorf("%s timeout too large (max 30 minutes)", name)
	}
	return nil
}

// ValidateQuota validates the free-use cap and per-use cost
func ValidateQuota(freeUses int, cost int64) error {
	if freeUses < 0 {
		return fmt.Errorf("free use cap cannot be negative")
	}
	if cost <= 0 {
		return fmt.Errorf("cost per use must be positive")
	}
	return nil
}
