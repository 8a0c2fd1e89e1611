package model

import "time"

// Entitlement is the usage quota attached to an identity.
type Entitlement struct {
	ID                string    `json:"id"`
	FreeUsesRemaining int       `json:"free_uses_remaining"`
	CreditBalance     int64     `json:"credit_balance"`
	Unlimited         bool      `json:"unlimited"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Charge is how an admission was paid for.
type Charge string

const (
	ChargeNone      Charge = ""
	ChargeUnlimited Charge = "unlimited"
	ChargeFreeUse   Charge = "free_use"
	ChargeCredits   Charge = "credits"
)

// Apply runs the admission precedence against e in place and reports how the
// use was paid for. ChargeNone means the entitlement is exhausted and e was
// left untouched. Every store implements the same precedence; this is the
// reference used by the in-memory store and by tests.
func (e *Entitlement) Apply(cost int64) Charge {
	switch {
	case e.Unlimited:
		return ChargeUnlimited
	case e.FreeUsesRemaining > 0:
		e.FreeUsesRemaining--
		return ChargeFreeUse
	case e.CreditBalance >= cost:
		e.CreditBalance -= cost
		return ChargeCredits
	default:
		return ChargeNone
	}
}
