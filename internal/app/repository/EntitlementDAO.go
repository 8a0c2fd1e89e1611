package repository

import (
	"context"

	"mediaconv/internal/app/model"
)

// EntitlementDAO persists entitlements. Consume is the only mutation on the
// request path and must be a single atomic read-modify-write: two concurrent
// calls for the same identity can never both be paid from the same unit.
type EntitlementDAO interface {
	Get(ctx context.Context, id string) (*model.Entitlement, error)

	// Consume applies the admission precedence for one use costing cost
	// credits. ChargeNone means exhausted and nothing was changed.
	Consume(ctx context.Context, id string, cost int64) (model.Charge, *model.Entitlement, error)

	Upsert(ctx context.Context, e model.Entitlement) error

	Grant(ctx context.Context, id string, credits int64) (*model.Entitlement, error)

	SetUnlimited(ctx context.Context, id string, unlimited bool) error

	List(ctx context.Context) ([]model.Entitlement, error)

	Close() error
}
