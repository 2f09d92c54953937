package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
)

var offsets = []time.Duration{24 * time.Hour, 2 * time.Hour}

// TestDue_OneMinuteWindow checks the trigger window is [tick, tick+1m):
// an event exactly ahead from the tick fires, one a minute later does not.
func TestDue_OneMinuteWindow(t *testing.T) {
	loc := time.UTC
	events := []models.Event{
		{ID: "a", Date: "2026-11-21", Time: "10:00"},
		{ID: "b", Date: "2026-11-21", Time: "10:01"},
		{ID: "c", Date: "2026-11-20", Time: "12:00"},
		{ID: "bad", Date: "21/11/2026", Time: "10:00"},
	}

	tick := time.Date(2026, 11, 20, 10, 0, 30, 0, loc)
	due := Due(events, tick, offsets, loc)
	if len(due) != 2 {
		t.Fatalf("want 2 reminders, got %d: %+v", len(due), due)
	}
	if due[0].Event.ID != "a" || due[0].Ahead != 24*time.Hour {
		t.Errorf("first: got %s/%s", due[0].Event.ID, due[0].Ahead)
	}
	if due[1].Event.ID != "c" || due[1].Ahead != 2*time.Hour {
		t.Errorf("second: got %s/%s", due[1].Event.ID, due[1].Ahead)
	}

	if got := Due(events, tick.Add(time.Minute), []time.Duration{24 * time.Hour}, loc); len(got) != 1 || got[0].Event.ID != "b" {
		t.Errorf("next tick: got %+v", got)
	}
}

// TestDue_UsesLocation reads event wall times in the configured zone.
func TestDue_UsesLocation(t *testing.T) {
	loc := time.FixedZone("GST", 4*3600)
	events := []models.Event{{ID: "a", Date: "2026-11-21", Time: "10:00"}}

	tick := time.Date(2026, 11, 21, 4, 0, 0, 0, time.UTC) // 08:00 GST
	if got := Due(events, tick, []time.Duration{2 * time.Hour}, loc); len(got) != 1 {
		t.Errorf("want reminder 2h before 10:00 GST, got %d", len(got))
	}
	if got := Due(events, tick, []time.Duration{2 * time.Hour}, time.UTC); len(got) != 0 {
		t.Errorf("UTC reading must not match, got %d", len(got))
	}
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemoryBackend())
	if err := st.Events.Save(ctx, []models.Event{{
		ID:        "e1",
		Title:     models.LocalizedText{En: "Hack Day"},
		Date:      "2026-12-01",
		Time:      "09:00",
		Enrolled:  3,
		Attendees: []models.Attendee{{Name: "Dana", Email: "dana@example.com", Tickets: 2, Code: "REG-00000001"}, {Name: "Walk-in", Tickets: 1}},
	}}); err != nil {
		t.Fatal(err)
	}
	mail := services.NewConsoleMailer(zerolog.Nop(), "MyRobot")
	r := NewRunner(st, mail, offsets, time.UTC, zerolog.Nop())

	n, err := r.RunOnce(ctx, time.Date(2026, 12, 1, 7, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 reminder, got %d", n)
	}
	if sent := mail.Sent(); len(sent) != 1 || sent[0].To != "dana@example.com" {
		t.Errorf("want one email to dana, got %+v", sent)
	}
	list, _ := st.Notifications.List(ctx)
	if len(list) != 1 || list[0].Type != "reminder" {
		t.Errorf("want one reminder notification, got %+v", list)
	}

	n, _ = r.RunOnce(ctx, time.Date(2026, 12, 1, 7, 1, 0, 0, time.UTC))
	if n != 0 {
		t.Errorf("next minute must not repeat, got %d", n)
	}
}

// TestTick_CoversMissedMinutes fires a reminder whose minute fell between
// two late ticks, and only once.
func TestTick_CoversMissedMinutes(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemoryBackend())
	if err := st.Events.Save(ctx, []models.Event{{
		ID: "e1", Title: models.LocalizedText{En: "Hack Day"}, Date: "2026-12-01", Time: "09:00",
	}}); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(st, services.NewConsoleMailer(zerolog.Nop(), "MyRobot"),
		[]time.Duration{2 * time.Hour}, time.UTC, zerolog.Nop())

	steps := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2026, 12, 1, 6, 59, 10, 0, time.UTC), 0},
		{time.Date(2026, 12, 1, 7, 1, 5, 0, time.UTC), 1}, // 07:00 tick was dropped
		{time.Date(2026, 12, 1, 7, 1, 40, 0, time.UTC), 0},
		{time.Date(2026, 12, 1, 7, 3, 0, 0, time.UTC), 0},
	}
	for _, s := range steps {
		n, err := r.Tick(ctx, s.at)
		if err != nil {
			t.Fatal(err)
		}
		if n != s.want {
			t.Errorf("tick %s: got %d reminders, want %d", s.at.Format("15:04:05"), n, s.want)
		}
	}
}
