package availability

import (
	"reflect"
	"sort"
	"testing"

	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

const tuesday = "2025-03-04"

func TestResolveDayScenarios(t *testing.T) {
	base := []model.RecurringSlot{slot("s-11", 1, "11:00:00")}

	cases := []struct {
		name      string
		slots     []model.RecurringSlot
		overrides []model.SpecialAvailability
		booked    map[string]bool
		want      []model.TimeSlot
		blocked   bool
		reason    string
	}{
		{
			name:  "clean day",
			slots: base,
			want:  []model.TimeSlot{{Time: "11:00:00", DurationMinutes: 50, IsAvailable: true, SlotID: "s-11", SessionType: sessionp(model.SessionIndividual)}},
		},
		{
			name:   "booked slot",
			slots:  base,
			booked: map[string]bool{"11:00:00": true},
			want:   []model.TimeSlot{{Time: "11:00:00", DurationMinutes: 50, IsAvailable: false, SlotID: "s-11", SessionType: sessionp(model.SessionIndividual)}},
		},
		{
			name:      "extra slot",
			overrides: []model.SpecialAvailability{extra(tuesday, "19:00:00", intp(30))},
			want:      []model.TimeSlot{{Time: "19:00:00", DurationMinutes: 30, IsAvailable: true}},
		},
		{
			name: "extra slot default duration and session type",
			overrides: []model.SpecialAvailability{func() model.SpecialAvailability {
				o := extra(tuesday, "19:00:00", nil)
				o.SessionType = sessionp(model.SessionParenting)
				return o
			}()},
			want: []model.TimeSlot{{Time: "19:00:00", DurationMinutes: DefaultExtraDuration, IsAvailable: true, SessionType: sessionp(model.SessionParenting)}},
		},
		{
			name:      "holiday block",
			slots:     base,
			overrides: []model.SpecialAvailability{blockDay(tuesday, "Tatil")},
			booked:    map[string]bool{"11:00:00": true},
			want:      []model.TimeSlot{},
			blocked:   true,
			reason:    "Tatil",
		},
		{
			name:      "first whole-day reason wins",
			slots:     base,
			overrides: []model.SpecialAvailability{blockDay(tuesday, "Kongre"), blockDay(tuesday, "Tatil")},
			want:      []model.TimeSlot{},
			blocked:   true,
			reason:    "Kongre",
		},
		{
			name:      "per-time block",
			slots:     []model.RecurringSlot{slot("s-11", 1, "11:00:00"), slot("s-14", 1, "14:00:00")},
			overrides: []model.SpecialAvailability{blockTime(tuesday, "14:00")},
			want: []model.TimeSlot{
				{Time: "11:00:00", DurationMinutes: 50, IsAvailable: true, SlotID: "s-11", SessionType: sessionp(model.SessionIndividual)},
				{Time: "14:00:00", DurationMinutes: 50, IsAvailable: false, SlotID: "s-14", SessionType: sessionp(model.SessionIndividual)},
			},
		},
		{
			name:      "booked extra slot",
			overrides: []model.SpecialAvailability{extra(tuesday, "19:00:00", intp(30))},
			booked:    map[string]bool{"19:00:00": true},
			want:      []model.TimeSlot{{Time: "19:00:00", DurationMinutes: 30, IsAvailable: false}},
		},
		{
			name:      "extra without time is ignored",
			overrides: []model.SpecialAvailability{{ID: "open", Date: tuesday, IsAvailable: true}},
			want:      []model.TimeSlot{},
		},
		{
			name: "other days and inactive slots ignored",
			slots: []model.RecurringSlot{
				slot("mon", 0, "09:00:00"),
				func() model.RecurringSlot { s := slot("off", 1, "10:00:00"); s.IsActive = false; return s }(),
			},
			overrides: []model.SpecialAvailability{blockDay("2025-03-05", "other day"), extra("2025-03-05", "08:00:00", nil)},
			want:      []model.TimeSlot{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDay(mustDate(tuesday), tc.slots, tc.overrides, tc.booked)
			if got.Date != tuesday || got.DayOfWeek != 1 {
				t.Fatalf("envelope = %s/%d", got.Date, got.DayOfWeek)
			}
			if got.IsBlocked != tc.blocked || got.BlockReason != tc.reason {
				t.Fatalf("blocked = %v %q, want %v %q", got.IsBlocked, got.BlockReason, tc.blocked, tc.reason)
			}
			if !reflect.DeepEqual(got.Slots, tc.want) {
				t.Fatalf("slots = %+v\nwant  %+v", got.Slots, tc.want)
			}
		})
	}
}

func TestResolveDayExtraDoesNotDuplicate(t *testing.T) {
	slots := []model.RecurringSlot{slot("s-11", 1, "11:00:00")}
	overrides := []model.SpecialAvailability{
		extra(tuesday, "11:00", intp(90)),
		extra(tuesday, "12:00:00", nil),
		extra(tuesday, "12:00:00", intp(20)),
	}
	got := ResolveDay(mustDate(tuesday), slots, overrides, nil).Slots
	if len(got) != 2 {
		t.Fatalf("slots = %+v", got)
	}
	if got[0].SlotID != "s-11" || got[0].DurationMinutes != 50 {
		t.Fatalf("recurring entry replaced: %+v", got[0])
	}
	if got[1].Time != "12:00:00" || got[1].DurationMinutes != DefaultExtraDuration {
		t.Fatalf("first extra should win: %+v", got[1])
	}
}

func TestResolveDaySorted(t *testing.T) {
	slots := []model.RecurringSlot{
		slot("c", 1, "16:30:00"),
		slot("a", 1, "09:00:00"),
		slot("b", 1, "13:00:00"),
	}
	overrides := []model.SpecialAvailability{extra(tuesday, "08:00:00", nil), extra(tuesday, "19:00:00", nil)}
	got := ResolveDay(mustDate(tuesday), slots, overrides, nil).Slots
	if len(got) != 5 {
		t.Fatalf("slots = %+v", got)
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Time < got[j].Time }) {
		t.Fatalf("slots not sorted: %+v", got)
	}
}

func TestResolveDayBookedExcluded(t *testing.T) {
	times := []string{"09:00:00", "10:00:00", "11:00:00", "14:00:00"}
	var slots []model.RecurringSlot
	for _, at := range times {
		slots = append(slots, slot("s-"+at, 1, at))
	}
	booked := map[string]bool{"10:00:00": true, "14:00:00": true, "20:00:00": true}
	for _, s := range ResolveDay(mustDate(tuesday), slots, nil, booked).Slots {
		if booked[s.Time] == s.IsAvailable {
			t.Fatalf("slot %s available=%v with booked=%v", s.Time, s.IsAvailable, booked[s.Time])
		}
	}
}

func TestResolveDayShortTimeBlock(t *testing.T) {
	slots := []model.RecurringSlot{slot("s-15", 1, "15:00:00"), slot("s-16", 1, "16:00:00")}
	overrides := []model.SpecialAvailability{blockTime(tuesday, "15:00")}
	got := ResolveDay(mustDate(tuesday), slots, overrides, nil).Slots
	if len(got) != 2 || got[0].IsAvailable || !got[1].IsAvailable {
		t.Fatalf("slots = %+v", got)
	}
	if *overrides[0].StartTime != "15:00" {
		t.Fatalf("caller's override was rewritten to %q", *overrides[0].StartTime)
	}
}
