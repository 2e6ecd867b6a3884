package storage

import (
	"context"

	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

type SummaryRepository struct {
	pool *db.Pool
}

func NewSummaryRepository(pool *db.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// Summary counts open work. today is the practice's calendar date; live
// appointments on today and the following six days make up next_7_days.
func (r *SummaryRepository) Summary(ctx context.Context, today string) (model.Summary, error) {
	var s model.Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM appointments WHERE status = 'pending'),
			(SELECT count(*) FROM appointments WHERE NOT is_read),
			(SELECT count(*) FROM appointments
				WHERE status IN ('pending', 'confirmed') AND appointment_date = $1::date),
			(SELECT count(*) FROM appointments
				WHERE status IN ('pending', 'confirmed')
				AND appointment_date BETWEEN $1::date AND $1::date + 6),
			(SELECT count(*) FROM call_requests WHERE status = 'pending'),
			(SELECT count(*) FROM call_requests WHERE NOT is_read),
			(SELECT count(*) FROM contact_submissions WHERE status = 'new'),
			(SELECT count(*) FROM contact_submissions WHERE NOT is_read)
	`, today).Scan(
		&s.Appointments.Pending,
		&s.Appointments.Unread,
		&s.Appointments.Today,
		&s.Appointments.NextWeek,
		&s.CallRequests.Pending,
		&s.CallRequests.Unread,
		&s.ContactMessages.New,
		&s.ContactMessages.Unread,
	)
	if err != nil {
		return model.Summary{}, apperr.FetchFailed(tableAppointments, err)
	}
	return s, nil
}
