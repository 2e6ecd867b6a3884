package availability

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

func monthFixture() *fakeSource {
	return &fakeSource{
		slots: []model.RecurringSlot{
			slot("mon-10", 0, "10:00:00"),
			slot("tue-11", 1, "11:00:00"),
			slot("tue-15", 1, "15:00:00"),
			slot("fri-09", 4, "09:00:00"),
			func() model.RecurringSlot { s := slot("sat-off", 5, "10:00:00"); s.IsActive = false; return s }(),
		},
		overrides: []model.SpecialAvailability{
			blockDay("2025-03-10", "Tatil"),
			blockTime("2025-03-11", "15:00:00"),
			extra("2025-03-11", "19:00:00", intp(30)),
			extra("2025-03-14", "09:00:00", intp(30)),
			extra("2025-03-22", "12:00:00", nil),
			blockDay("2025-04-01", "next month"),
		},
		booked: []model.BookedTime{
			{Date: "2025-03-04", Time: "11:00:00"},
			{Date: "2025-03-04", Time: "11:00:00"},
			{Date: "2025-03-10", Time: "10:00:00"},
			{Date: "2025-03-11", Time: "19:00:00"},
			{Date: "2025-03-31", Time: "10:00:00"},
		},
	}
}

func TestMonthMatchesSingleDay(t *testing.T) {
	ctx := context.Background()
	src := monthFixture()
	r := NewResolver(src)

	days, err := r.Month(ctx, 2025, 2)
	if err != nil {
		t.Fatalf("Month failed: %v", err)
	}
	if len(days) != 31 || days[0].Date != "2025-03-01" || days[30].Date != "2025-03-31" {
		t.Fatalf("unexpected range: %d days", len(days))
	}
	if src.calls() != 3 {
		t.Fatalf("Month made %d fetches, want 3", src.calls())
	}

	for _, want := range days {
		got, err := NewResolver(monthFixture()).DayAvailability(ctx, mustDate(want.Date))
		if err != nil {
			t.Fatalf("DayAvailability(%s) failed: %v", want.Date, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: single = %+v\nmonth = %+v", want.Date, got, want)
		}
	}

	holiday := days[9]
	if !holiday.IsBlocked || holiday.BlockReason != "Tatil" || len(holiday.Slots) != 0 {
		t.Fatalf("holiday = %+v", holiday)
	}
	if last := days[30]; len(last.Slots) != 1 || last.Slots[0].IsAvailable {
		t.Fatalf("booked monday = %+v", last)
	}
}

func TestDayShortCircuitsOnWholeDayBlock(t *testing.T) {
	src := monthFixture()
	slots, err := NewResolver(src).Day(context.Background(), mustDate("2025-03-10"))
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slots = %+v", slots)
	}
	if src.bookedCalls != 0 {
		t.Fatal("appointments were read for a blocked day")
	}
}

func TestDayCleanTuesday(t *testing.T) {
	src := &fakeSource{slots: []model.RecurringSlot{slot("s-1", 1, "11:00:00")}}
	slots, err := NewResolver(src).Day(context.Background(), mustDate(tuesday))
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if len(slots) != 1 || slots[0].Time != "11:00:00" || slots[0].DurationMinutes != 50 || !slots[0].IsAvailable || slots[0].SlotID != "s-1" {
		t.Fatalf("slots = %+v", slots)
	}
	if src.calls() != 3 {
		t.Fatalf("Day made %d fetches, want 3", src.calls())
	}
}

func TestFetchFailuresAbort(t *testing.T) {
	boom := errors.New("connection refused")
	cases := []struct {
		table string
		set   func(*fakeSource)
	}{
		{TableSlots, func(f *fakeSource) { f.slotsErr = boom }},
		{TableOverrides, func(f *fakeSource) { f.overridesErr = boom }},
		{TableAppointments, func(f *fakeSource) { f.bookedErr = boom }},
	}
	for _, tc := range cases {
		src := monthFixture()
		tc.set(src)
		r := NewResolver(src)

		day, err := r.Day(context.Background(), mustDate(tuesday))
		assertFetchFailed(t, err, tc.table)
		if day != nil {
			t.Fatalf("%s: partial result %+v", tc.table, day)
		}

		days, err := r.Month(context.Background(), 2025, 2)
		assertFetchFailed(t, err, tc.table)
		if days != nil {
			t.Fatalf("%s: partial month %+v", tc.table, days)
		}
	}
}

func assertFetchFailed(t *testing.T, err error, table string) {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindFetchFailed || e.Table != table {
		t.Fatalf("err = %#v, want fetch_failed on %s", err, table)
	}
	if e.Error() != "connection refused" || !e.Retryable() {
		t.Fatalf("message = %q retryable = %v", e.Error(), e.Retryable())
	}
}

func TestMonthValidation(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src)
	for _, tc := range []struct{ year, month0 int }{{2025, -1}, {2025, 12}, {1969, 0}} {
		if _, err := r.Month(context.Background(), tc.year, tc.month0); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("Month(%d,%d) err = %v", tc.year, tc.month0, err)
		}
	}
	if src.calls() != 0 {
		t.Fatal("invalid input should not reach the store")
	}
}
