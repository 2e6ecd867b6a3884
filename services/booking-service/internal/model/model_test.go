package model

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestOccupies(t *testing.T) {
	for s, want := range map[AppointmentStatus]bool{
		StatusPending: true, StatusConfirmed: true, StatusCancelled: false, StatusCompleted: false,
	} {
		if s.Occupies() != want {
			t.Errorf("%s.Occupies() = %v", s, !want)
		}
	}
}

func TestOverrideVariants(t *testing.T) {
	at := "10:00:00"
	day := SpecialAvailability{IsAvailable: false}
	one := SpecialAvailability{IsAvailable: false, StartTime: &at}
	add := SpecialAvailability{IsAvailable: true, StartTime: &at}
	openDay := SpecialAvailability{IsAvailable: true}

	if !day.BlocksDay() || one.BlocksDay() || add.BlocksDay() {
		t.Fatal("BlocksDay mismatch")
	}
	if !one.BlocksTime(at) || one.BlocksTime("11:00:00") || add.BlocksTime(at) {
		t.Fatal("BlocksTime mismatch")
	}
	if !add.Adds() || openDay.Adds() || one.Adds() {
		t.Fatal("Adds mismatch")
	}
}
