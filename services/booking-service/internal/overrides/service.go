// Package overrides manages the weekly pattern and the date-specific
// exceptions an operator sets. None of the operations look at existing
// appointments; blocking a booked day leaves the booking in place.
package overrides

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
	"github.com/practiceops/practiceops/services/booking-service/internal/validate"
)

// All availability changes share one aggregate so they stay ordered on a
// single partition.
const aggregate = "availability"

type Store interface {
	// UpsertSlot inserts or, on a (day_of_week, start_time) clash, updates
	// duration, session type and active flag in place. evt builds the event
	// from the stored row, whose id is the existing one after a clash.
	UpsertSlot(ctx context.Context, slot model.RecurringSlot, evt func(model.RecurringSlot) outbox.Event) (model.RecurringSlot, error)
	DeleteSlot(ctx context.Context, id string, evt outbox.Event) error
	ListSlots(ctx context.Context) ([]model.RecurringSlot, error)
	InsertOverride(ctx context.Context, o model.SpecialAvailability, evt outbox.Event) (model.SpecialAvailability, error)
	DeleteOverride(ctx context.Context, id string, evt outbox.Event) error
	ListOverrides(ctx context.Context, from, to string) ([]model.SpecialAvailability, error)
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

type SlotInput struct {
	DayOfWeek       int    `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	SessionType     string `json:"session_type"`
	IsActive        *bool  `json:"is_active"`
}

func (s *Service) UpsertSlot(ctx context.Context, in SlotInput) (model.RecurringSlot, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return model.RecurringSlot{}, apperr.Validation("day_of_week", "day_of_week must be 0 (Monday) to 6 (Sunday)")
	}
	at, err := availability.ParseTime(in.StartTime)
	if err != nil {
		return model.RecurringSlot{}, apperr.Validation("start_time", "start_time must be HH:MM")
	}
	if err := checkDuration(in.DurationMinutes); err != nil {
		return model.RecurringSlot{}, err
	}
	st := model.SessionType(strings.TrimSpace(in.SessionType))
	if st == "" {
		st = model.SessionIndividual
	}
	if !st.Valid() {
		return model.RecurringSlot{}, apperr.Validation("session_type", "session_type must be individual, parenting or checkin")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	slot := model.RecurringSlot{
		ID:              uuid.NewString(),
		DayOfWeek:       in.DayOfWeek,
		StartTime:       at,
		DurationMinutes: in.DurationMinutes,
		SessionType:     st,
		IsActive:        active,
	}
	return s.store.UpsertSlot(ctx, slot, func(stored model.RecurringSlot) outbox.Event {
		return changed(availability.TableSlots, "upsert", stored.ID, "")
	})
}

func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	id, err := validate.ID(id)
	if err != nil {
		return err
	}
	return s.store.DeleteSlot(ctx, id, changed(availability.TableSlots, "delete", id, ""))
}

func (s *Service) ListSlots(ctx context.Context) ([]model.RecurringSlot, error) {
	return s.store.ListSlots(ctx)
}

// BlockDay closes date entirely.
func (s *Service) BlockDay(ctx context.Context, date, reason string) (model.SpecialAvailability, error) {
	return s.insert(ctx, OverrideInput{Date: date, Reason: reason})
}

// BlockTime closes a single time on date.
func (s *Service) BlockTime(ctx context.Context, date, at, reason string) (model.SpecialAvailability, error) {
	if strings.TrimSpace(at) == "" {
		return model.SpecialAvailability{}, apperr.Validation("start_time", "start_time is required")
	}
	return s.insert(ctx, OverrideInput{Date: date, StartTime: at, Reason: reason})
}

// AddExtraSlot opens a one-off time on date.
func (s *Service) AddExtraSlot(ctx context.Context, in OverrideInput) (model.SpecialAvailability, error) {
	if strings.TrimSpace(in.StartTime) == "" {
		return model.SpecialAvailability{}, apperr.Validation("start_time", "start_time is required")
	}
	in.IsAvailable = true
	return s.insert(ctx, in)
}

// OverrideInput is the shared form behind the three override kinds.
type OverrideInput struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes *int   `json:"duration_minutes"`
	SessionType     string `json:"session_type"`
	IsAvailable     bool   `json:"is_available"`
	Reason          string `json:"reason"`
}

// Create dispatches on the input shape: available with a time adds a slot,
// unavailable with a time blocks it, unavailable without one blocks the day.
func (s *Service) Create(ctx context.Context, in OverrideInput) (model.SpecialAvailability, error) {
	switch {
	case in.IsAvailable:
		return s.AddExtraSlot(ctx, in)
	case strings.TrimSpace(in.StartTime) != "":
		return s.BlockTime(ctx, in.Date, in.StartTime, in.Reason)
	default:
		return s.BlockDay(ctx, in.Date, in.Reason)
	}
}

func (s *Service) insert(ctx context.Context, in OverrideInput) (model.SpecialAvailability, error) {
	d, err := availability.ParseDate(in.Date)
	if err != nil {
		return model.SpecialAvailability{}, apperr.Validation("date", "date must be YYYY-MM-DD")
	}
	o := model.SpecialAvailability{
		ID:          uuid.NewString(),
		Date:        availability.FormatDate(d),
		IsAvailable: in.IsAvailable,
	}
	if strings.TrimSpace(in.StartTime) != "" {
		at, err := availability.ParseTime(in.StartTime)
		if err != nil {
			return model.SpecialAvailability{}, apperr.Validation("start_time", "start_time must be HH:MM")
		}
		o.StartTime = &at
	}
	if in.IsAvailable {
		if in.DurationMinutes != nil {
			if err := checkDuration(*in.DurationMinutes); err != nil {
				return model.SpecialAvailability{}, err
			}
			o.DurationMinutes = in.DurationMinutes
		}
		if st := model.SessionType(strings.TrimSpace(in.SessionType)); st != "" {
			if !st.Valid() {
				return model.SpecialAvailability{}, apperr.Validation("session_type", "session_type must be individual, parenting or checkin")
			}
			o.SessionType = &st
		}
	}
	reason, err := validate.Text("reason", in.Reason, 500, false)
	if err != nil {
		return model.SpecialAvailability{}, err
	}
	if reason != "" {
		o.Reason = &reason
	}
	return s.store.InsertOverride(ctx, o, changed(availability.TableOverrides, "insert", o.ID, o.Date))
}

func (s *Service) DeleteOverride(ctx context.Context, id string) error {
	id, err := validate.ID(id)
	if err != nil {
		return err
	}
	return s.store.DeleteOverride(ctx, id, changed(availability.TableOverrides, "delete", id, ""))
}

// ListOverrides defaults to today through the next 90 days.
func (s *Service) ListOverrides(ctx context.Context, from, to string) ([]model.SpecialAvailability, error) {
	today := s.now().In(s.loc)
	start, end := availability.FormatDate(today), availability.FormatDate(today.AddDate(0, 0, 90))
	if strings.TrimSpace(from) != "" {
		d, err := availability.ParseDate(from)
		if err != nil {
			return nil, apperr.Validation("from", "from must be YYYY-MM-DD")
		}
		start = availability.FormatDate(d)
	}
	if strings.TrimSpace(to) != "" {
		d, err := availability.ParseDate(to)
		if err != nil {
			return nil, apperr.Validation("to", "to must be YYYY-MM-DD")
		}
		end = availability.FormatDate(d)
	}
	if end < start {
		return nil, apperr.Validation("to", "to must not be before from")
	}
	return s.store.ListOverrides(ctx, start, end)
}

func checkDuration(minutes int) error {
	if minutes < 10 || minutes > 240 {
		return apperr.Validation("duration_minutes", "duration_minutes must be between 10 and 240")
	}
	return nil
}

func changed(table, action, id, date string) outbox.Event {
	return outbox.New(aggregate, aggregate, outbox.TypeAvailabilityChanged, outbox.AvailabilityChanged{
		Table:  table,
		Action: action,
		ID:     id,
		Date:   date,
	})
}
