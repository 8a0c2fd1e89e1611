package services

import (
	"context"

	"mediaconv/internal/api/v1/dto"
)

// EntitlementServiceImpl implements EntitlementService
type EntitlementServiceImpl struct {
	gate Gate
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(gate Gate) EntitlementService {
	return &EntitlementServiceImpl{gate: gate}
}

// GetEntitlement returns the caller's quota without mutating it.
func (s *EntitlementServiceImpl) GetEntitlement(ctx context.Context, identity string) (*dto.EntitlementResponse, error) {
	e, err := s.gate.Entitlement(ctx, identity)
	if err != nil {
		return nil, err
	}
	return dto.NewEntitlementResponse(e, s.gate.Cost()), nil
}
