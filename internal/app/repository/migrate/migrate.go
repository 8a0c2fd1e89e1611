// Package migrate copies entitlements between stores, for example when a
// deployment moves from the bundled SQLite file to PostgreSQL or Redis.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mediaconv/internal/app/repository"
)

// Report counts what a copy did.
type Report struct {
	Copied  int
	Skipped int
}

// Copy upserts every entitlement of src into dst. Rows that fail validation
// or insertion are logged and skipped so one bad row does not abort the run.
func Copy(ctx context.Context, src, dst repository.EntitlementDAO, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var r Report

	rows, err := src.List(ctx)
	if err != nil {
		return r, fmt.Errorf("read source entitlements: %w", err)
	}

	for _, e := range rows {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		// Data validation
		if strings.TrimSpace(e.ID) == "" {
			logger.Warn("Skipping entitlement with empty id")
			r.Skipped++
			continue
		}
		if err := dst.Upsert(ctx, e); err != nil {
			logger.Warn("Failed to copy entitlement", zap.String("id", e.ID), zap.Error(err))
			r.Skipped++
			continue
		}
		r.Copied++
	}

	logger.Info("Entitlement migration completed", zap.Int("copied", r.Copied), zap.Int("skipped", r.Skipped))
	return r, nil
}
