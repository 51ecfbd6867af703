package services

import (
	"context"
	"math/rand"
)

// PaymentGateway decides whether a charge goes through. It is the single
// substitution point for a real payment processor.
type PaymentGateway interface {
	Approve(ctx context.Context, amount float64) (bool, error)
}

// RandomGateway approves a fixed share of charges. It stands in for an
// external processor in development.
type RandomGateway struct {
	SuccessRate float64
}

func (g RandomGateway) Approve(context.Context, float64) (bool, error) {
	return rand.Float64() < g.SuccessRate, nil
}

// FixedGateway always answers the same way.
type FixedGateway bool

const (
	ApproveAll FixedGateway = true
	DeclineAll FixedGateway = false
)

func (g FixedGateway) Approve(context.Context, float64) (bool, error) {
	return bool(g), nil
}
