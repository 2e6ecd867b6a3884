package availability

import (
	"sort"
	"time"

	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

// DefaultExtraDuration applies to additive overrides without a duration.
const DefaultExtraDuration = 50

// ResolveDay merges the weekly pattern, the overrides and the booked times
// for one date. Overrides for other dates and inactive slots are ignored, so
// callers may pass a whole month of overrides. booked holds HH:MM:SS times
// occupied on date.
func ResolveDay(date time.Time, slots []model.RecurringSlot, overrides []model.SpecialAvailability, booked map[string]bool) model.DayAvailability {
	day := model.DayAvailability{
		Date:      FormatDate(date),
		DayOfWeek: Weekday(date),
		Slots:     []model.TimeSlot{},
	}

	todays := overridesOn(day.Date, overrides)
	if blocked, reason := dayBlock(todays); blocked {
		day.IsBlocked = true
		day.BlockReason = reason
		return day
	}

	seen := make(map[string]bool)
	for _, s := range slots {
		if !s.IsActive || s.DayOfWeek != day.DayOfWeek {
			continue
		}
		at := NormalizeTime(s.StartTime)
		if seen[at] {
			continue
		}
		seen[at] = true
		st := s.SessionType
		day.Slots = append(day.Slots, model.TimeSlot{
			Time:            at,
			DurationMinutes: s.DurationMinutes,
			IsAvailable:     !booked[at] && !timeBlocked(at, todays),
			SlotID:          s.ID,
			SessionType:     &st,
		})
	}

	for _, o := range todays {
		if !o.Adds() {
			continue
		}
		at := *o.StartTime
		if seen[at] {
			continue
		}
		seen[at] = true
		duration := DefaultExtraDuration
		if o.DurationMinutes != nil && *o.DurationMinutes > 0 {
			duration = *o.DurationMinutes
		}
		day.Slots = append(day.Slots, model.TimeSlot{
			Time:            at,
			DurationMinutes: duration,
			IsAvailable:     !booked[at],
			SessionType:     o.SessionType,
		})
	}

	sort.SliceStable(day.Slots, func(i, j int) bool {
		return day.Slots[i].Time < day.Slots[j].Time
	})
	return day
}

// overridesOn keeps the overrides for date with start times normalized to
// HH:MM:SS. The caller's values are not modified.
func overridesOn(date string, overrides []model.SpecialAvailability) []model.SpecialAvailability {
	var out []model.SpecialAvailability
	for _, o := range overrides {
		if o.Date != date {
			continue
		}
		if o.StartTime != nil {
			at := NormalizeTime(*o.StartTime)
			o.StartTime = &at
		}
		out = append(out, o)
	}
	return out
}

// dayBlock reports a whole-day block; the first one's reason wins.
func dayBlock(overrides []model.SpecialAvailability) (bool, string) {
	for _, o := range overrides {
		if o.BlocksDay() {
			if o.Reason != nil {
				return true, *o.Reason
			}
			return true, ""
		}
	}
	return false, ""
}

func timeBlocked(at string, overrides []model.SpecialAvailability) bool {
	for _, o := range overrides {
		if o.BlocksTime(at) {
			return true
		}
	}
	return false
}

// bookedByDate groups booked cells into per-date time sets.
func bookedByDate(booked []model.BookedTime) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, b := range booked {
		set := out[b.Date]
		if set == nil {
			set = make(map[string]bool)
			out[b.Date] = set
		}
		set[NormalizeTime(b.Time)] = true
	}
	return out
}
