package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCardDeclined      = errors.New("card declined")
	ErrIdempotencyReused = errors.New("idempotency key already used for a different charge")
)

// declineSuffix marks the test card number that is always refused.
const declineSuffix = "0002"

type PaymentDetails struct {
	CardName   string `json:"cardName" validate:"required,min=2,max=80"`
	CardNumber string `json:"cardNumber" validate:"required,credit_card"`
	Expiry     string `json:"expiry" validate:"required,mmyy"`
	CVC        string `json:"cvc" validate:"required,numeric,min=3,max=4"`
}

func (p PaymentDetails) last4() string {
	n := digitsOnly(p.CardNumber)
	if len(n) < 4 {
		return n
	}
	return n[len(n)-4:]
}

type ChargeRequest struct {
	IdempotencyKey string
	Amount         float64
	Description    string
	Card           PaymentDetails
}

type Receipt struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Last4       string    `json:"last4,omitempty"`
	Description string    `json:"description"`
	ChargedAt   time.Time `json:"chargedAt"`
	Refunded    bool      `json:"refunded,omitempty"`
}

// PaymentSimulator stands in for a card processor. Charges take a fixed
// delay and cards ending in 0002 are declined. A repeated idempotency key
// returns the first receipt while it is unrefunded; a refunded key charges
// again.
type PaymentSimulator struct {
	delay time.Duration
	now   func() time.Time

	mu       sync.Mutex
	receipts map[string]Receipt // by idempotency key
}

func NewPaymentSimulator(delay time.Duration) *PaymentSimulator {
	return &PaymentSimulator{delay: delay, now: time.Now, receipts: map[string]Receipt{}}
}

func (p *PaymentSimulator) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if r, ok, err := p.reusable(req); ok || err != nil {
		return r, err
	}

	if req.Amount > 0 && p.delay > 0 {
		t := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return Receipt{}, ctx.Err()
		case <-t.C:
		}
	}

	if req.Amount > 0 && strings.HasSuffix(digitsOnly(req.Card.CardNumber), declineSuffix) {
		return Receipt{}, ErrCardDeclined
	}

	r := Receipt{
		ID:          "pay_" + uuid.NewString(),
		Amount:      req.Amount,
		Description: req.Description,
		ChargedAt:   p.now().UTC(),
	}
	if req.Amount > 0 {
		r.Last4 = req.Card.last4()
	}

	if req.IdempotencyKey != "" {
		p.mu.Lock()
		defer p.mu.Unlock()
		if prev, ok := p.receipts[req.IdempotencyKey]; ok && !prev.Refunded {
			if !prev.matches(req) {
				return Receipt{}, ErrIdempotencyReused
			}
			return prev, nil
		}
		p.receipts[req.IdempotencyKey] = r
	}
	return r, nil
}

// reusable returns the live receipt stored under the request key. A
// receipt for a different amount or description is an error.
func (p *PaymentSimulator) reusable(req ChargeRequest) (Receipt, bool, error) {
	if req.IdempotencyKey == "" {
		return Receipt{}, false, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.receipts[req.IdempotencyKey]
	if !ok || r.Refunded {
		return Receipt{}, false, nil
	}
	if !r.matches(req) {
		return Receipt{}, false, ErrIdempotencyReused
	}
	return r, true, nil
}

func (r Receipt) matches(req ChargeRequest) bool {
	return r.Amount == req.Amount && r.Description == req.Description
}

// Refund marks the receipt charged under key as refunded.
func (p *PaymentSimulator) Refund(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.receipts[key]
	if !ok {
		return fmt.Errorf("refund: no charge for key %q", key)
	}
	r.Refunded = true
	p.receipts[key] = r
	return nil
}
