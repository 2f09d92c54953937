package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
	"github.com/myrobot/academy/internal/wizard"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("not enough seats left")
)

const MaxTickets = 10

// CheckoutForm is the two-page event ticket wizard.
type CheckoutForm struct {
	EventID string `json:"eventId" validate:"required"`
	Name    string `json:"name" validate:"required,min=2,max=80"`
	Email   string `json:"email" validate:"required,email"`
	Tickets int    `json:"tickets" validate:"required,min=1,max=10"`

	Payment PaymentDetails `json:"payment"`
}

func (f *CheckoutForm) Normalize() {
	f.EventID = strings.TrimSpace(f.EventID)
	f.Name = strings.TrimSpace(f.Name)
	if e, ok := NormEmail(f.Email); ok {
		f.Email = e
	}
}

const (
	checkoutAttendeeStep = 0
	checkoutPaymentStep  = 1
)

var checkoutAttendee = wizard.Step{Name: "attendee", Fields: []string{"EventID", "Name", "Email", "Tickets"}}

func NewCheckoutFlow(v *validator.Validator) *wizard.Flow[CheckoutForm] {
	return wizard.New[CheckoutForm]("checkout", v,
		checkoutAttendee,
		wizard.Step{Name: "payment", Fields: []string{
			"Payment.CardName", "Payment.CardNumber", "Payment.Expiry", "Payment.CVC",
		}},
	)
}

// NewFreeCheckoutFlow is the checkout for events without a price: the
// attendee page is also the last.
func NewFreeCheckoutFlow(v *validator.Validator) *wizard.Flow[CheckoutForm] {
	return wizard.New[CheckoutForm]("checkout", v, checkoutAttendee)
}

type CheckoutResult struct {
	Event   models.Event    `json:"event"`
	Ticket  models.Attendee `json:"ticket"`
	Total   float64         `json:"total"`
	Receipt Receipt         `json:"receipt"`
}

type Checkout struct {
	Flow     *wizard.Flow[CheckoutForm]
	FreeFlow *wizard.Flow[CheckoutForm]

	store *store.Store
	pay   *PaymentSimulator
	mail  Mailer
	log   zerolog.Logger

	done *submissions[CheckoutResult]
}

func NewCheckout(st *store.Store, v *validator.Validator, pay *PaymentSimulator, mail Mailer, log zerolog.Logger) *Checkout {
	return &Checkout{
		Flow:     NewCheckoutFlow(v),
		FreeFlow: NewFreeCheckoutFlow(v),
		store:    st,
		pay:      pay,
		mail:     mail,
		log:      log,
		done:     newSubmissions[CheckoutResult](),
	}
}

// FlowFor returns the wizard for eventID: FreeFlow when the event is free.
func (c *Checkout) FlowFor(ctx context.Context, eventID string) (*wizard.Flow[CheckoutForm], error) {
	ev, err := c.store.Events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if ev.Price <= 0 {
		return c.FreeFlow, nil
	}
	return c.Flow, nil
}

// Submit books tickets. Card details are only checked when the event
// costs something. A repeated key returns the first booking.
func (c *Checkout) Submit(ctx context.Context, form CheckoutForm, key string) (CheckoutResult, error) {
	if key == "" {
		key = uuid.NewString()
	}
	return c.done.do(ctx, key, func() (CheckoutResult, error) {
		return c.submit(ctx, form, "checkout:"+key)
	})
}

func (c *Checkout) submit(ctx context.Context, form CheckoutForm, payKey string) (CheckoutResult, error) {
	if err := c.Flow.ValidateStep(checkoutAttendeeStep, &form); err != nil {
		return CheckoutResult{}, err
	}

	ev, err := c.store.Events.Get(ctx, form.EventID)
	if errors.Is(err, store.ErrNotFound) {
		return CheckoutResult{}, ErrEventNotFound
	}
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("load event: %w", err)
	}
	if ev.SeatsLeft() < form.Tickets {
		return CheckoutResult{}, ErrEventFull
	}

	total := ev.Price * float64(form.Tickets)
	if total > 0 {
		if err := c.Flow.ValidateStep(checkoutPaymentStep, &form); err != nil {
			return CheckoutResult{}, err
		}
	}

	receipt, err := c.pay.Charge(ctx, ChargeRequest{
		IdempotencyKey: payKey,
		Amount:         total,
		Description:    fmt.Sprintf("%d x %s", form.Tickets, ev.Title.En),
		Card:           form.Payment,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	ticket := models.Attendee{Name: form.Name, Email: form.Email, Tickets: form.Tickets, Code: NewRegCode()}
	ev, ok, err := c.store.Events.UpdateFunc(ctx, ev.ID, func(e *models.Event) error {
		if e.SeatsLeft() < form.Tickets {
			return ErrEventFull
		}
		e.Enrolled += form.Tickets
		e.Attendees = append(e.Attendees, ticket)
		return nil
	})
	if err == nil && !ok {
		err = ErrEventNotFound
	}
	if err != nil {
		if rerr := c.pay.Refund(payKey); rerr != nil {
			c.log.Warn().Err(rerr).Msg("refund failed")
		}
		return CheckoutResult{}, err
	}

	if _, err := c.store.Notify(ctx, "event",
		fmt.Sprintf("%s booked %d ticket(s) for %s", ticket.Name, ticket.Tickets, ev.Title.En)); err != nil {
		c.log.Error().Err(err).Str("code", ticket.Code).Msg("event notification failed")
	}
	if err := c.mail.Send(ctx, Message{
		To:      form.Email,
		Subject: "Your tickets: " + ev.Title.En,
		Body: fmt.Sprintf("Hi %s,\n\nYou have %d ticket(s) for %s on %s at %s.\nCode: %s\n",
			ticket.Name, ticket.Tickets, ev.Title.En, ev.Date, ev.Time, ticket.Code),
	}); err != nil {
		c.log.Error().Err(err).Str("to", form.Email).Msg("ticket email failed")
	}

	c.log.Info().Str("code", ticket.Code).Str("event", ev.ID).Int("tickets", ticket.Tickets).Msg("checkout completed")

	return CheckoutResult{Event: ev.Public(), Ticket: ticket, Total: total, Receipt: receipt}, nil
}
