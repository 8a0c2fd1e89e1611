// Package usage decides whether an identity may start a conversion and
// charges it for doing so.
package usage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository"
)

// Decision is the outcome of a successful admission.
type Decision struct {
	Charge      model.Charge
	Entitlement *model.Entitlement
}

// Gate admits requests against the entitlement store. Charges are never
// refunded, even if the conversion fails afterwards.
type Gate struct {
	store    repository.EntitlementDAO
	freeCap  int
	cost     int64
	observer func(charge model.Charge, err error)
	logger   *zap.Logger
}

func NewGate(store repository.EntitlementDAO, freeCap int, cost int64, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, freeCap: freeCap, cost: cost, logger: logger}
}

// Observe registers fn to be called with every admission result.
func (g *Gate) Observe(fn func(charge model.Charge, err error)) {
	g.observer = fn
}

// Cost is the credit price of one use.
func (g *Gate) Cost() int64 { return g.cost }

// Admit charges identity for one use. Precedence: unlimited passes without
// change, then a free use, then credits. When neither is available the
// result is ErrExhausted and nothing is changed.
func (g *Gate) Admit(ctx context.Context, identity string) (*Decision, error) {
	d, err := g.admit(ctx, identity)
	if g.observer != nil {
		var charge model.Charge
		if d != nil {
			charge = d.Charge
		}
		g.observer(charge, err)
	}
	return d, err
}

func (g *Gate) admit(ctx context.Context, identity string) (*Decision, error) {
	if identity == "" {
		return nil, apperrors.ErrNoCredential
	}
	charge, e, err := g.store.Consume(ctx, identity, g.cost)
	if err != nil {
		var classified *apperrors.Error
		if errors.As(err, &classified) {
			return nil, err
		}
		g.logger.Error("Entitlement store failure", zap.String("identity", identity), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "entitlement check failed")
	}
	if charge == model.ChargeNone {
		return nil, apperrors.ErrExhausted
	}

	g.logger.Debug("Admitted",
		zap.String("identity", identity),
		zap.String("charge", string(charge)),
		zap.Int("free_uses_remaining", e.FreeUsesRemaining),
		zap.Int64("credit_balance", e.CreditBalance))
	return &Decision{Charge: charge, Entitlement: e}, nil
}

// Entitlement returns the current quota of identity without charging it.
func (g *Gate) Entitlement(ctx context.Context, identity string) (*model.Entitlement, error) {
	return g.store.Get(ctx, identity)
}

// Provision creates identity with the configured free-use allowance when it
// does not exist yet and returns its entitlement.
func (g *Gate) Provision(ctx context.Context, identity string) (*model.Entitlement, error) {
	e, err := g.store.Get(ctx, identity)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}
	if err := g.store.Upsert(ctx, model.Entitlement{ID: identity, FreeUsesRemaining: g.freeCap}); err != nil {
		return nil, err
	}
	return g.store.Get(ctx, identity)
}
