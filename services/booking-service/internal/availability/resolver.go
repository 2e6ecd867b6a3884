package availability

import (
	"context"
	"time"

	"github.com/practiceops/practiceops/libs/apperr"
	otelx "github.com/practiceops/practiceops/libs/otel"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Table names reported in fetch failures.
const (
	TableSlots        = "availability_slots"
	TableOverrides    = "special_availability"
	TableAppointments = "appointments"
)

// Source reads the three inputs of the resolver. Dates are YYYY-MM-DD and
// ranges are inclusive. BookedTimes returns only cells held by pending or
// confirmed appointments.
type Source interface {
	ActiveSlots(ctx context.Context) ([]model.RecurringSlot, error)
	Overrides(ctx context.Context, from, to string) ([]model.SpecialAvailability, error)
	BookedTimes(ctx context.Context, from, to string) ([]model.BookedTime, error)
}

type Resolver struct {
	src    Source
	tracer trace.Tracer
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src, tracer: otelx.Tracer("booking-service/availability")}
}

// Day returns the bookable slots of date, or an empty list when the whole
// day is blocked.
func (r *Resolver) Day(ctx context.Context, date time.Time) ([]model.TimeSlot, error) {
	day, err := r.DayAvailability(ctx, date)
	if err != nil {
		return nil, err
	}
	return day.Slots, nil
}

// DayAvailability resolves one date. A whole-day block returns before the
// appointments table is read.
func (r *Resolver) DayAvailability(ctx context.Context, date time.Time) (day model.DayAvailability, err error) {
	key := FormatDate(date)
	ctx, span := r.tracer.Start(ctx, "availability.Day", trace.WithAttributes(attribute.String("date", key)))
	defer func() { otelx.EndSpan(span, err) }()

	slots, err := r.src.ActiveSlots(ctx)
	if err != nil {
		return model.DayAvailability{}, apperr.FetchFailed(TableSlots, err)
	}
	overrides, err := r.src.Overrides(ctx, key, key)
	if err != nil {
		return model.DayAvailability{}, apperr.FetchFailed(TableOverrides, err)
	}

	var booked map[string]bool
	if blocked, _ := dayBlock(overridesOn(key, overrides)); !blocked {
		cells, err := r.src.BookedTimes(ctx, key, key)
		if err != nil {
			return model.DayAvailability{}, apperr.FetchFailed(TableAppointments, err)
		}
		booked = bookedByDate(cells)[key]
	}
	return ResolveDay(date, slots, overrides, booked), nil
}

// Month resolves every day of a zero-based month with three reads in total.
func (r *Resolver) Month(ctx context.Context, year, month0 int) (days []model.DayAvailability, err error) {
	if month0 < 0 || month0 > 11 {
		return nil, apperr.Validation("month", "month must be between 0 and 11")
	}
	if year < 1970 || year > 9999 {
		return nil, apperr.Validation("year", "year must be between 1970 and 9999")
	}
	first, last := MonthBounds(year, month0)
	from, to := FormatDate(first), FormatDate(last)

	ctx, span := r.tracer.Start(ctx, "availability.Month", trace.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
	defer func() { otelx.EndSpan(span, err) }()

	slots, err := r.src.ActiveSlots(ctx)
	if err != nil {
		return nil, apperr.FetchFailed(TableSlots, err)
	}
	overrides, err := r.src.Overrides(ctx, from, to)
	if err != nil {
		return nil, apperr.FetchFailed(TableOverrides, err)
	}
	cells, err := r.src.BookedTimes(ctx, from, to)
	if err != nil {
		return nil, apperr.FetchFailed(TableAppointments, err)
	}

	byDate := make(map[string][]model.SpecialAvailability)
	for _, o := range overrides {
		byDate[o.Date] = append(byDate[o.Date], o)
	}
	booked := bookedByDate(cells)

	days = make([]model.DayAvailability, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := FormatDate(d)
		days = append(days, ResolveDay(d, slots, byDate[key], booked[key]))
	}
	return days, nil
}
