package storage

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/services/booking-service/internal/booking"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
)

const (
	tableAppointments = "appointments"

	msgSlotTaken       = "the selected time has just been booked, please choose another slot"
	msgAppointmentGone = "appointment not found"
	msgStatusRaced     = "appointment status changed concurrently"
)

var appointmentColumns = `id::text, full_name, email, phone, session_type, therapy_channel,
	` + isoDate("appointment_date") + `, to_char(appointment_time, 'HH24:MI:SS'),
	note, admin_notes, status, is_read, created_at, updated_at`

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

func scanAppointment(row pgx.CollectableRow) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.FullName,
		&a.Email,
		&a.Phone,
		&a.SessionType,
		&a.TherapyChannel,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.Note,
		&a.AdminNotes,
		&a.Status,
		&a.IsRead,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// CreateAppointment inserts a and its event atomically. A second live
// booking of the same cell trips the partial unique index and comes back
// as a conflict.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, a model.Appointment, evt outbox.Event) (model.Appointment, error) {
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO appointments
				(id, full_name, email, phone, session_type, therapy_channel,
				appointment_date, appointment_time, note, status, is_read, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11, $11)
			RETURNING `+appointmentColumns,
			a.ID, a.FullName, a.Email, a.Phone, a.SessionType, a.TherapyChannel,
			a.AppointmentDate, a.AppointmentTime, a.Note, a.Status, a.CreatedAt)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanAppointment); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.Appointment{}, writeErr(tableAppointments, msgSlotTaken, msgAppointmentGone, err)
	}
	return out, nil
}

func (r *AppointmentRepository) ListAppointments(ctx context.Context, f model.ListFilter) ([]model.Appointment, error) {
	where, args := listWhere(f, "appointment_date")
	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		`+where+`
		ORDER BY created_at DESC
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, apperr.FetchFailed(tableAppointments, err)
	}
	appts, err := pgx.CollectRows(rows, scanAppointment)
	if err != nil {
		return nil, apperr.FetchFailed(tableAppointments, err)
	}
	return appts, nil
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return model.Appointment{}, apperr.FetchFailed(tableAppointments, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAppointment)
	if err != nil {
		return model.Appointment{}, readErr(tableAppointments, msgAppointmentGone, err)
	}
	return a, nil
}

// UpdateAppointment writes every field of u and its event in one
// transaction, guarded on the status the caller read. Reviving a cancelled
// appointment is never allowed, so a status move cannot collide with the
// unique index.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, id string, u booking.Update) (model.Appointment, error) {
	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE appointments
			SET status = COALESCE($3::text, status),
				admin_notes = COALESCE($4::text, admin_notes),
				is_read = COALESCE($5::boolean, is_read),
				updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING `+appointmentColumns, id, string(u.From), status, u.AdminNotes, u.IsRead)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanAppointment); err != nil {
			return err
		}
		if u.Event == nil {
			return nil
		}
		return r.outbox.Insert(ctx, tx, *u.Event)
	})
	if IsNotFound(err) {
		return model.Appointment{}, apperr.Conflict(tableAppointments, msgStatusRaced, err)
	}
	if err != nil {
		return model.Appointment{}, writeErr(tableAppointments, msgSlotTaken, msgAppointmentGone, err)
	}
	return out, nil
}

func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return apperr.WriteFailed(tableAppointments, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(tableAppointments, msgAppointmentGone)
	}
	return nil
}

// listWhere builds the WHERE clause shared by operator list views.
// dateColumn is filtered by From/To when set.
func listWhere(f model.ListFilter, dateColumn string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.UnreadOnly {
		conds = append(conds, "NOT is_read")
	}
	if dateColumn != "" && f.From != "" {
		add(dateColumn+" >= ?", f.From)
	}
	if dateColumn != "" && f.To != "" {
		add(dateColumn+" <= ?", f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
