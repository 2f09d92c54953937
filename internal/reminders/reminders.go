// Package reminders posts event reminders at fixed offsets before start.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
)

type Reminder struct {
	Event    models.Event
	Ahead    time.Duration
	StartsAt time.Time
}

// Due returns the reminders whose trigger time (start - ahead) falls in the
// one-minute window [tick, tick+1m). Events with unparseable dates are skipped.
func Due(events []models.Event, tick time.Time, offsets []time.Duration, loc *time.Location) []Reminder {
	tick = tick.In(loc).Truncate(time.Minute)
	next := tick.Add(time.Minute)

	var out []Reminder
	for _, ahead := range offsets {
		// trigger = start - ahead ∈ [tick, next)
		// => start ∈ [tick+ahead, next+ahead)
		start := tick.Add(ahead)
		end := next.Add(ahead)
		for _, ev := range events {
			at, err := ev.StartsAt(loc)
			if err != nil {
				continue
			}
			if !at.Before(start) && at.Before(end) {
				out = append(out, Reminder{Event: ev, Ahead: ahead, StartsAt: at})
			}
		}
	}
	return out
}

// maxCatchUp bounds how far back Tick replays missed minutes.
const maxCatchUp = 24 * time.Hour

type Runner struct {
	store   *store.Store
	mail    services.Mailer
	offsets []time.Duration
	loc     *time.Location
	log     zerolog.Logger

	mu   sync.Mutex
	last time.Time // last minute processed
}

func NewRunner(st *store.Store, mail services.Mailer, offsets []time.Duration, loc *time.Location, log zerolog.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{store: st, mail: mail, offsets: offsets, loc: loc, log: log}
}

// Start ticks once a minute until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := r.Tick(ctx, now); err != nil {
					r.log.Error().Err(err).Msg("reminders run failed")
				}
			}
		}
	}()
}

// Tick runs every minute window after the last processed one up to now, so
// a late or dropped tick still sends the reminders it covered.
func (r *Runner) Tick(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	minute := now.Truncate(time.Minute)
	from := minute
	if !r.last.IsZero() {
		from = r.last.Add(time.Minute)
	}
	if minute.Sub(from) > maxCatchUp {
		from = minute.Add(-maxCatchUp)
	}

	total := 0
	for m := from; !m.After(minute); m = m.Add(time.Minute) {
		n, err := r.RunOnce(ctx, m)
		total += n
		if err != nil {
			return total, err
		}
		r.last = m
	}
	return total, nil
}

// RunOnce sends the reminders due at now: one admin notification per event
// and one email per attendee. It returns how many reminders fired.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (int, error) {
	events, err := r.store.Events.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	due := Due(events, now, r.offsets, r.loc)
	for _, d := range due {
		when := d.StartsAt.Format("Mon, 02 Jan 2006 15:04")
		if _, err := r.store.Notify(ctx, "reminder",
			fmt.Sprintf("Reminder: %s starts %s (%d attending)", d.Event.Title.En, when, d.Event.Enrolled)); err != nil {
			r.log.Error().Err(err).Str("event", d.Event.ID).Msg("reminder notification failed")
		}
		for _, a := range d.Event.Attendees {
			if a.Email == "" {
				continue
			}
			err := r.mail.Send(ctx, Message(a, d.Event, when))
			if err != nil {
				r.log.Warn().Err(err).Str("to", a.Email).Msg("reminder email failed")
			}
		}
		r.log.Info().Str("event", d.Event.ID).Dur("ahead", d.Ahead).Int("attendees", len(d.Event.Attendees)).Msg("reminder sent")
	}
	return len(due), nil
}

// Message builds the reminder email for one attendee.
func Message(a models.Attendee, ev models.Event, when string) services.Message {
	return services.Message{
		To:      a.Email,
		Subject: "Reminder: " + ev.Title.En,
		Body: fmt.Sprintf("Hi %s,\n\n%s starts %s at %s.\nTickets: %d\nCode: %s\n",
			a.Name, ev.Title.En, when, ev.Location.En, a.Tickets, a.Code),
	}
}
