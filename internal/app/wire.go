//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"mediaconv/internal/config"
)

// InitializeApplication builds every service component from cfg. The
// returned cleanup closes the entitlement store and flushes the logger.
func InitializeApplication(ctx context.Context, cfg *config.Config) (*Application, func(), error) {
	wire.Build(ProviderSet)
	return &Application{}, nil, nil
}
