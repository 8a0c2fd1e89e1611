package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env file if it exists
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
	}

	// Look for .env file, but don't fail if not found (environment variables might be set system-wide)
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// ApplyEnv overrides file configuration with environment variables.
func (c *Config) ApplyEnv() error {
	c.Server.Host = getEnvOrDefault("MEDIACONV_HOST", c.Server.Host)
	c.Server.Port = getEnvOrDefault("MEDIACONV_PORT", getEnvOrDefault("PORT", c.Server.Port))
	c.Server.Environment = getEnvOrDefault("MEDIACONV_ENV", c.Server.Environment)
	c.Log.Level = getEnvOrDefault("MEDIACONV_LOG_LEVEL", c.Log.Level)

	c.Auth.JWTSecret = strings.TrimSpace(getEnvOrDefault("JWT_SECRET", c.Auth.JWTSecret))

	c.Store.Driver = getEnvOrDefault("MEDIACONV_STORE", c.Store.Driver)
	c.Store.DSN = getEnvOrDefault("DATABASE_URL", c.Store.DSN)
	c.Store.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", c.Store.RedisPassword)

	c.Pipeline.YtDlpPath = getEnvOrDefault("YTDLP_PATH", c.Pipeline.YtDlpPath)
	c.Pipeline.FFmpegPath = getEnvOrDefault("FFMPEG_PATH", c.Pipeline.FFmpegPath)
	c.Pipeline.FFprobePath = getEnvOrDefault("FFPROBE_PATH", c.Pipeline.FFprobePath)

	c.Artifacts.Dir = getEnvOrDefault("MEDIACONV_OUTPUT_DIR", c.Artifacts.Dir)
	c.Artifacts.Backend = getEnvOrDefault("MEDIACONV_ARTIFACT_BACKEND", c.Artifacts.Backend)
	c.Artifacts.MinIO.Endpoint = getEnvOrDefault("MINIO_ENDPOINT", c.Artifacts.MinIO.Endpoint)
	c.Artifacts.MinIO.AccessKey = getEnvOrDefault("MINIO_ACCESS_KEY", c.Artifacts.MinIO.AccessKey)
	c.Artifacts.MinIO.SecretKey = getEnvOrDefault("MINIO_SECRET_KEY", c.Artifacts.MinIO.SecretKey)
	c.Artifacts.MinIO.Bucket = getEnvOrDefault("MINIO_BUCKET", c.Artifacts.MinIO.Bucket)
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Artifacts.MinIO.UseSSL = v == "true"
	}

	var err error
	if c.Usage.FreeUseCap, err = getEnvInt("MEDIACONV_FREE_USES", c.Usage.FreeUseCap); err != nil {
		return err
	}
	if c.Usage.CostPerUse, err = getEnvInt64("MEDIACONV_COST_PER_USE", c.Usage.CostPerUse); err != nil {
		return err
	}
	if c.Pipeline.PrimaryTimeout, err = getEnvDuration("MEDIACONV_PRIMARY_TIMEOUT", c.Pipeline.PrimaryTimeout); err != nil {
		return err
	}
	if c.Artifacts.GracePeriod, err = getEnvDuration("MEDIACONV_GRACE_PERIOD", c.Artifacts.GracePeriod); err != nil {
		return err
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
