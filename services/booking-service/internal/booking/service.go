package booking

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

const aggregateType = "appointment"

// Store persists appointments. Every mutation also writes the given outbox
// event in the same transaction.
type Store interface {
	CreateAppointment(ctx context.Context, a model.Appointment, evt outbox.Event) (model.Appointment, error)
	ListAppointments(ctx context.Context, f model.ListFilter) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// UpdateAppointment applies u in one transaction. The row must still be
	// in u.From, otherwise the update is reported as a conflict.
	UpdateAppointment(ctx context.Context, id string, u Update) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
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

// Request is the public booking form.
type Request struct {
	FullName        string  `json:"full_name"`
	Email           *string `json:"email"`
	Phone           string  `json:"phone"`
	SessionType     string  `json:"session_type"`
	TherapyChannel  string  `json:"therapy_channel"`
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	Note            string  `json:"note"`
}

// Submit records a pending appointment. The chosen slot is not re-resolved;
// two requests for the same cell are separated by the storage uniqueness
// constraint, which surfaces as a conflict.
func (s *Service) Submit(ctx context.Context, req Request) (model.Appointment, error) {
	appt, err := s.validate(req)
	if err != nil {
		return model.Appointment{}, err
	}

	now := s.now()
	appt.ID = uuid.NewString()
	appt.Status = model.StatusPending
	appt.CreatedAt = now
	appt.UpdatedAt = now

	payload := outbox.AppointmentRequested{
		AppointmentID:   appt.ID,
		FullName:        appt.FullName,
		Phone:           appt.Phone,
		Email:           deref(appt.Email),
		SessionType:     string(appt.SessionType),
		TherapyChannel:  string(appt.TherapyChannel),
		AppointmentDate: deref(appt.AppointmentDate),
		AppointmentTime: deref(appt.AppointmentTime),
		Note:            appt.Note,
		CreatedAt:       now.UTC(),
	}
	return s.store.CreateAppointment(ctx, appt, outbox.New(aggregateType, appt.ID, outbox.TypeAppointmentRequested, payload))
}

func (s *Service) validate(req Request) (model.Appointment, error) {
	var (
		appt model.Appointment
		err  error
	)
	if appt.FullName, err = validate.Name("full_name", req.FullName); err != nil {
		return appt, err
	}
	if appt.Phone, err = validate.Phone("phone", req.Phone); err != nil {
		return appt, err
	}
	if appt.Email, err = validate.OptionalEmail("email", req.Email); err != nil {
		return appt, err
	}

	appt.SessionType = model.SessionType(strings.TrimSpace(req.SessionType))
	if !appt.SessionType.Valid() {
		return appt, apperr.Validation("session_type", "session_type must be individual, parenting or checkin")
	}
	appt.TherapyChannel = model.TherapyChannel(strings.TrimSpace(req.TherapyChannel))
	if !appt.TherapyChannel.Valid() {
		return appt, apperr.Validation("therapy_channel", "therapy_channel must be remote-video or in-person")
	}

	date, at := blankToNil(req.AppointmentDate), blankToNil(req.AppointmentTime)
	switch {
	case date == nil && at == nil:
	case date == nil:
		return appt, apperr.Validation("appointment_date", "appointment_date is required when appointment_time is set")
	case at == nil:
		return appt, apperr.Validation("appointment_time", "appointment_time is required when appointment_date is set")
	default:
		d, err := availability.ParseDate(*date)
		if err != nil {
			return appt, apperr.Validation("appointment_date", "appointment_date must be YYYY-MM-DD")
		}
		today := availability.FormatDate(s.now().In(s.loc))
		day := availability.FormatDate(d)
		if day < today {
			return appt, apperr.Validation("appointment_date", "appointment_date is in the past")
		}
		t, err := availability.ParseTime(*at)
		if err != nil {
			return appt, apperr.Validation("appointment_time", "appointment_time must be HH:MM")
		}
		appt.AppointmentDate, appt.AppointmentTime = &day, &t
	}

	if appt.Note, err = validate.Text("note", req.Note, 2000, false); err != nil {
		return appt, err
	}
	return appt, nil
}

func (s *Service) List(ctx context.Context, f model.ListFilter) ([]model.Appointment, error) {
	if f.Status != "" && !model.AppointmentStatus(f.Status).Valid() {
		return nil, apperr.Validation("status", "unknown status "+f.Status)
	}
	return s.store.ListAppointments(ctx, f.Normalize())
}

func (s *Service) Get(ctx context.Context, id string) (model.Appointment, error) {
	id, err := validate.ID(id)
	if err != nil {
		return model.Appointment{}, err
	}
	return s.store.GetAppointment(ctx, id)
}

// Patch is an operator edit. Nil fields are left as they are.
type Patch struct {
	Status     *model.AppointmentStatus `json:"status"`
	AdminNotes *string                  `json:"admin_notes"`
	IsRead     *bool                    `json:"is_read"`
}

func (p Patch) empty() bool { return p.Status == nil && p.AdminNotes == nil && p.IsRead == nil }

// Update is a validated Patch ready for the store. Event is set only when
// the status actually changes.
type Update struct {
	From       model.AppointmentStatus
	Status     *model.AppointmentStatus
	AdminNotes *string
	IsRead     *bool
	Event      *outbox.Event
}

// Update checks every field of p before anything is written, then applies
// the whole patch at once. Setting the current status again is a no-op.
func (s *Service) Update(ctx context.Context, id string, p Patch) (model.Appointment, error) {
	if p.empty() {
		return model.Appointment{}, apperr.Validation("body", "nothing to update")
	}
	if p.Status != nil && !p.Status.Valid() {
		return model.Appointment{}, apperr.Validation("status", "unknown status "+string(*p.Status))
	}
	u := Update{IsRead: p.IsRead}
	if p.AdminNotes != nil {
		notes, err := validate.Text("admin_notes", *p.AdminNotes, 5000, false)
		if err != nil {
			return model.Appointment{}, err
		}
		u.AdminNotes = &notes
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	u.From = current.Status
	if p.Status != nil && *p.Status != current.Status {
		to := *p.Status
		if !current.Status.CanTransition(to) {
			return model.Appointment{}, apperr.Conflict("appointments",
				"cannot move appointment from "+string(current.Status)+" to "+string(to), nil)
		}
		evt := outbox.New(aggregateType, current.ID, outbox.TypeAppointmentStatusChanged, outbox.AppointmentStatusChanged{
			AppointmentID:   current.ID,
			From:            string(current.Status),
			To:              string(to),
			AppointmentDate: deref(current.AppointmentDate),
			AppointmentTime: deref(current.AppointmentTime),
		})
		u.Status, u.Event = &to, &evt
	}
	if u.Status == nil && u.AdminNotes == nil && u.IsRead == nil {
		return current, nil
	}
	return s.store.UpdateAppointment(ctx, current.ID, u)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id, err := validate.ID(id)
	if err != nil {
		return err
	}
	return s.store.DeleteAppointment(ctx, id)
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
