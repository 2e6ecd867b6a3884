package availability

import (
	"context"
	"time"

	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

type fakeSource struct {
	slots     []model.RecurringSlot
	overrides []model.SpecialAvailability
	booked    []model.BookedTime

	slotsErr, overridesErr, bookedErr error

	slotCalls, overrideCalls, bookedCalls int
}

func (f *fakeSource) ActiveSlots(context.Context) ([]model.RecurringSlot, error) {
	f.slotCalls++
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	var out []model.RecurringSlot
	for _, s := range f.slots {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) Overrides(_ context.Context, from, to string) ([]model.SpecialAvailability, error) {
	f.overrideCalls++
	if f.overridesErr != nil {
		return nil, f.overridesErr
	}
	var out []model.SpecialAvailability
	for _, o := range f.overrides {
		if o.Date >= from && o.Date <= to {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeSource) BookedTimes(_ context.Context, from, to string) ([]model.BookedTime, error) {
	f.bookedCalls++
	if f.bookedErr != nil {
		return nil, f.bookedErr
	}
	var out []model.BookedTime
	for _, b := range f.booked {
		if b.Date >= from && b.Date <= to {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSource) calls() int { return f.slotCalls + f.overrideCalls + f.bookedCalls }

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func sessionp(s model.SessionType) *model.SessionType { return &s }

func slot(id string, day int, at string) model.RecurringSlot {
	return model.RecurringSlot{ID: id, DayOfWeek: day, StartTime: at, DurationMinutes: 50, SessionType: model.SessionIndividual, IsActive: true}
}

func blockDay(date, reason string) model.SpecialAvailability {
	o := model.SpecialAvailability{ID: "block-" + date, Date: date}
	if reason != "" {
		o.Reason = strp(reason)
	}
	return o
}

func blockTime(date, at string) model.SpecialAvailability {
	return model.SpecialAvailability{ID: "bt-" + date + at, Date: date, StartTime: strp(at)}
}

func extra(date, at string, duration *int) model.SpecialAvailability {
	return model.SpecialAvailability{ID: "x-" + date + at, Date: date, StartTime: strp(at), DurationMinutes: duration, IsAvailable: true}
}

func mustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}
