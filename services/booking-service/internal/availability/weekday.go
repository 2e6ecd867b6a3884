package availability

import "time"

// MondayIndex rotates a Sunday=0 weekday into the Monday=0..Sunday=6
// numbering used by recurring slots.
func MondayIndex(native int) int {
	return (native + 6) % 7
}

// Weekday returns the Monday-first index of date.
func Weekday(date time.Time) int {
	return MondayIndex(int(date.Weekday()))
}
