package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
)

// AvailabilityRepository backs both the resolver and operator override
// management.
type AvailabilityRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAvailabilityRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool, outbox: outboxRepo}
}

const slotColumns = `id::text, day_of_week, to_char(start_time, 'HH24:MI:SS'), duration_minutes, session_type, is_active`

func scanSlot(row pgx.CollectableRow) (model.RecurringSlot, error) {
	var s model.RecurringSlot
	err := row.Scan(&s.ID, &s.DayOfWeek, &s.StartTime, &s.DurationMinutes, &s.SessionType, &s.IsActive)
	return s, err
}

func (r *AvailabilityRepository) ActiveSlots(ctx context.Context) ([]model.RecurringSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE is_active
		ORDER BY day_of_week, start_time
	`)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableSlots, err)
	}
	slots, err := pgx.CollectRows(rows, scanSlot)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableSlots, err)
	}
	return slots, nil
}

func (r *AvailabilityRepository) ListSlots(ctx context.Context) ([]model.RecurringSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		ORDER BY day_of_week, start_time
	`)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableSlots, err)
	}
	slots, err := pgx.CollectRows(rows, scanSlot)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableSlots, err)
	}
	return slots, nil
}

func (r *AvailabilityRepository) UpsertSlot(ctx context.Context, slot model.RecurringSlot, evt func(model.RecurringSlot) outbox.Event) (model.RecurringSlot, error) {
	var out model.RecurringSlot
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO availability_slots (id, day_of_week, start_time, duration_minutes, session_type, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (day_of_week, start_time) DO UPDATE
			SET duration_minutes = EXCLUDED.duration_minutes,
				session_type = EXCLUDED.session_type,
				is_active = EXCLUDED.is_active,
				updated_at = now()
			RETURNING `+slotColumns,
			slot.ID, slot.DayOfWeek, slot.StartTime, slot.DurationMinutes, slot.SessionType, slot.IsActive)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanSlot); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt(out))
	})
	if err != nil {
		return model.RecurringSlot{}, writeErr(availability.TableSlots, "slot already exists", "slot not found", err)
	}
	return out, nil
}

func (r *AvailabilityRepository) DeleteSlot(ctx context.Context, id string, evt outbox.Event) error {
	return r.deleteByID(ctx, availability.TableSlots, "slot not found", `DELETE FROM availability_slots WHERE id = $1`, id, evt)
}

var overrideColumns = `id::text, ` + isoDate("date") + `, to_char(start_time, 'HH24:MI:SS'), duration_minutes, session_type, is_available, reason`

func scanOverride(row pgx.CollectableRow) (model.SpecialAvailability, error) {
	var o model.SpecialAvailability
	err := row.Scan(&o.ID, &o.Date, &o.StartTime, &o.DurationMinutes, &o.SessionType, &o.IsAvailable, &o.Reason)
	return o, err
}

// Overrides returns overrides dated within [from, to] in creation order so
// the first whole-day block's reason is stable.
func (r *AvailabilityRepository) Overrides(ctx context.Context, from, to string) ([]model.SpecialAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+overrideColumns+`
		FROM special_availability
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, created_at, id
	`, from, to)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableOverrides, err)
	}
	overrides, err := pgx.CollectRows(rows, scanOverride)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableOverrides, err)
	}
	return overrides, nil
}

func (r *AvailabilityRepository) ListOverrides(ctx context.Context, from, to string) ([]model.SpecialAvailability, error) {
	return r.Overrides(ctx, from, to)
}

func (r *AvailabilityRepository) InsertOverride(ctx context.Context, o model.SpecialAvailability, evt outbox.Event) (model.SpecialAvailability, error) {
	var out model.SpecialAvailability
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO special_availability (id, date, start_time, duration_minutes, session_type, is_available, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+overrideColumns,
			o.ID, o.Date, o.StartTime, o.DurationMinutes, o.SessionType, o.IsAvailable, o.Reason)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanOverride); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.SpecialAvailability{}, writeErr(availability.TableOverrides, "override already exists", "override not found", err)
	}
	return out, nil
}

func (r *AvailabilityRepository) DeleteOverride(ctx context.Context, id string, evt outbox.Event) error {
	return r.deleteByID(ctx, availability.TableOverrides, "override not found", `DELETE FROM special_availability WHERE id = $1`, id, evt)
}

// BookedTimes lists the cells held by pending or confirmed appointments.
func (r *AvailabilityRepository) BookedTimes(ctx context.Context, from, to string) ([]model.BookedTime, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+isoDate("appointment_date")+`, to_char(appointment_time, 'HH24:MI:SS')
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
			AND appointment_time IS NOT NULL
			AND status IN ('pending', 'confirmed')
	`, from, to)
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableAppointments, err)
	}
	booked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BookedTime, error) {
		var b model.BookedTime
		err := row.Scan(&b.Date, &b.Time)
		return b, err
	})
	if err != nil {
		return nil, apperr.FetchFailed(availability.TableAppointments, err)
	}
	return booked, nil
}

func (r *AvailabilityRepository) deleteByID(ctx context.Context, table, notFound, query, id string, evt outbox.Event) error {
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	return writeErr(table, "", notFound, err)
}
