package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/contactdesk/contactdesk/internal/schema"
)

const recurringSlots = 3

var slotLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

var cronParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// Appointments books technician visits and service meetings.
type Appointments struct {
	now func() time.Time
}

func NewAppointments(d Deps) *Appointments { return &Appointments{now: d.Now} }

func (*Appointments) Name() string { return "Appointments" }
func (*Appointments) Description() string {
	return "Appointment scheduling system for technical support, installation visits, and customer service meetings"
}

func (a *Appointments) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "Schedule",
		Description: "Schedules an appointment for customer service, technical support, installation, or consultation. Returns confirmed appointment slot.",
		Params: []schema.Param{
			str("purpose", "Purpose of appointment: 'technical_support', 'installation', 'consultation', 'device_pickup', 'account_review'"),
			str("accountId", "Customer account identifier for appointment booking"),
			strList("preferredTimes", "Array of preferred appointment times in ISO format (e.g. ['2025-08-12T10:00Z', '2025-08-12T14:00Z'])"),
			optional(str("recurrence", "Optional cron expression for a recurring visit, e.g. '0 9 * * 1' for Mondays at 09:00")),
		},
		Invoke: a.schedule,
	}}
}

func (a *Appointments) schedule(_ context.Context, args schema.Args) (any, error) {
	slots := parseSlots(args.Strings("preferredTimes"))
	if len(slots) == 0 {
		return nil, errors.New("no preferred time could be parsed; use ISO format like 2025-08-12T10:00Z")
	}
	confirmed := slots[0]

	result := map[string]any{
		"confirmedSlot":    confirmed.UTC().Format(time.RFC3339),
		"appointmentId":    newID("appt"),
		"accountId":        args.String("accountId"),
		"purpose":          args.String("purpose"),
		"duration":         "60 minutes",
		"location":         "Customer premises or service center",
		"confirmationSent": true,
		"nextSteps":        "Confirmation email sent with appointment details",
		"bookedAt":         a.now().UTC().Format(time.RFC3339),
	}

	if expr := strings.TrimSpace(args.String("recurrence")); expr != "" {
		sched, err := cronParser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid recurrence %q: %w", expr, err)
		}
		next := make([]string, 0, recurringSlots)
		t := confirmed
		for range recurringSlots {
			t = sched.Next(t)
			if t.IsZero() {
				break
			}
			next = append(next, t.UTC().Format(time.RFC3339))
		}
		result["recurrence"] = expr
		result["followUpSlots"] = next
	}
	return result, nil
}

// parseSlots returns the parseable times in ascending order.
func parseSlots(raw []string) []time.Time {
	var out []time.Time
	for _, s := range raw {
		s = strings.TrimSpace(s)
		for _, layout := range slotLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				out = append(out, t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
