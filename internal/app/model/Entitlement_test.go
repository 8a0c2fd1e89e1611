package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitlementApply(t *testing.T) {
	tests := []struct {
		name     string
		in       Entitlement
		cost     int64
		want     Charge
		wantFree int
		wantBal  int64
	}{
		{"unlimited never mutates", Entitlement{Unlimited: true, FreeUsesRemaining: 0, CreditBalance: 0}, 50, ChargeUnlimited, 0, 0},
		{"unlimited with counters", Entitlement{Unlimited: true, FreeUsesRemaining: 2, CreditBalance: 500}, 50, ChargeUnlimited, 2, 500},
		{"free use first", Entitlement{FreeUsesRemaining: 2, CreditBalance: 500}, 50, ChargeFreeUse, 1, 500},
		{"credits when no free uses", Entitlement{FreeUsesRemaining: 0, CreditBalance: 120}, 50, ChargeCredits, 0, 70},
		{"exact balance", Entitlement{CreditBalance: 50}, 50, ChargeCredits, 0, 0},
		{"exhausted", Entitlement{FreeUsesRemaining: 0, CreditBalance: 49}, 50, ChargeNone, 0, 49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.in
			got := e.Apply(tt.cost)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFree, e.FreeUsesRemaining)
			assert.Equal(t, tt.wantBal, e.CreditBalance)
		})
	}
}

func TestEntitlementApplyNeverNegative(t *testing.T) {
	e := Entitlement{FreeUsesRemaining: 1, CreditBalance: 100}
	for i := 0; i < 10; i++ {
		e.Apply(50)
		assert.GreaterOrEqual(t, e.FreeUsesRemaining, 0)
		assert.GreaterOrEqual(t, e.CreditBalance, int64(0))
	}
	assert.Equal(t, ChargeNone, e.Apply(50))
}
