package model

// RecurringSlot is a weekly bookable time. DayOfWeek is 0=Monday..6=Sunday.
type RecurringSlot struct {
	ID              string      `json:"id"`
	DayOfWeek       int         `json:"day_of_week"`
	StartTime       string      `json:"start_time"`
	DurationMinutes int         `json:"duration_minutes"`
	SessionType     SessionType `json:"session_type"`
	IsActive        bool        `json:"is_active"`
}

// SpecialAvailability overrides the weekly pattern on one date. With
// IsAvailable false it blocks the whole day (StartTime nil) or one time;
// with IsAvailable true it adds a one-off slot.
type SpecialAvailability struct {
	ID              string       `json:"id"`
	Date            string       `json:"date"`
	StartTime       *string      `json:"start_time"`
	DurationMinutes *int         `json:"duration_minutes"`
	SessionType     *SessionType `json:"session_type"`
	IsAvailable     bool         `json:"is_available"`
	Reason          *string      `json:"reason"`
}

func (o SpecialAvailability) BlocksDay() bool {
	return !o.IsAvailable && o.StartTime == nil
}

func (o SpecialAvailability) BlocksTime(t string) bool {
	return !o.IsAvailable && o.StartTime != nil && *o.StartTime == t
}

func (o SpecialAvailability) Adds() bool {
	return o.IsAvailable && o.StartTime != nil
}

type TimeSlot struct {
	Time            string       `json:"time"`
	DurationMinutes int          `json:"duration"`
	IsAvailable     bool         `json:"is_available"`
	SlotID          string       `json:"slot_id,omitempty"`
	SessionType     *SessionType `json:"session_type,omitempty"`
}

type DayAvailability struct {
	Date        string     `json:"date"`
	DayOfWeek   int        `json:"day_of_week"`
	Slots       []TimeSlot `json:"slots"`
	IsBlocked   bool       `json:"is_blocked"`
	BlockReason string     `json:"block_reason,omitempty"`
}
