// Package intake handles the "call me back" and contact forms and their
// operator triage.
package intake

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
	"github.com/practiceops/practiceops/services/booking-service/internal/validate"
)

type Store interface {
	CreateCallRequest(ctx context.Context, c model.CallRequest, evt outbox.Event) (model.CallRequest, error)
	ListCallRequests(ctx context.Context, f model.ListFilter) ([]model.CallRequest, error)
	UpdateCallRequest(ctx context.Context, id string, p Patch) (model.CallRequest, error)
	DeleteCallRequest(ctx context.Context, id string) error

	CreateContactMessage(ctx context.Context, m model.ContactMessage, evt outbox.Event) (model.ContactMessage, error)
	ListContactMessages(ctx context.Context, f model.ListFilter) ([]model.ContactMessage, error)
	UpdateContactMessage(ctx context.Context, id string, p Patch) (model.ContactMessage, error)
	DeleteContactMessage(ctx context.Context, id string) error
}

// Patch carries the triage fields an operator may change. Nil leaves a
// field untouched.
type Patch struct {
	Status *string `json:"status"`
	IsRead *bool   `json:"is_read"`
}

func (p Patch) empty() bool { return p.Status == nil && p.IsRead == nil }

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type CallRequestInput struct {
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	PreferredTime string `json:"preferred_time"`
	Note          string `json:"note"`
}

func (s *Service) CreateCallRequest(ctx context.Context, in CallRequestInput) (model.CallRequest, error) {
	var (
		c   model.CallRequest
		err error
	)
	if c.FullName, err = validate.Name("full_name", in.FullName); err != nil {
		return model.CallRequest{}, err
	}
	if c.Phone, err = validate.Phone("phone", in.Phone); err != nil {
		return model.CallRequest{}, err
	}
	pref, err := validate.Text("preferred_time", in.PreferredTime, 100, false)
	if err != nil {
		return model.CallRequest{}, err
	}
	if pref != "" {
		c.PreferredTime = &pref
	}
	if c.Note, err = validate.Text("note", in.Note, 2000, false); err != nil {
		return model.CallRequest{}, err
	}

	now := s.now()
	c.ID = uuid.NewString()
	c.Status = model.CallPending
	c.CreatedAt, c.UpdatedAt = now, now

	evt := outbox.New("call_request", c.ID, outbox.TypeCallRequestCreated, outbox.CallRequestCreated{
		CallRequestID: c.ID,
		FullName:      c.FullName,
		Phone:         c.Phone,
		PreferredTime: pref,
		Note:          c.Note,
	})
	return s.store.CreateCallRequest(ctx, c, evt)
}

func (s *Service) ListCallRequests(ctx context.Context, f model.ListFilter) ([]model.CallRequest, error) {
	if f.Status != "" && !model.CallRequestStatus(f.Status).Valid() {
		return nil, apperr.Validation("status", "unknown status "+f.Status)
	}
	return s.store.ListCallRequests(ctx, f.Normalize())
}

func (s *Service) UpdateCallRequest(ctx context.Context, id string, p Patch) (model.CallRequest, error) {
	id, err := validate.ID(id)
	if err != nil {
		return model.CallRequest{}, err
	}
	if p.empty() {
		return model.CallRequest{}, apperr.Validation("body", "nothing to update")
	}
	if p.Status != nil && !model.CallRequestStatus(*p.Status).Valid() {
		return model.CallRequest{}, apperr.Validation("status", "status must be pending, called or closed")
	}
	return s.store.UpdateCallRequest(ctx, id, p)
}

func (s *Service) DeleteCallRequest(ctx context.Context, id string) error {
	id, err := validate.ID(id)
	if err != nil {
		return err
	}
	return s.store.DeleteCallRequest(ctx, id)
}

type ContactInput struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Subject  string  `json:"subject"`
	Message  string  `json:"message"`
}

func (s *Service) CreateContactMessage(ctx context.Context, in ContactInput) (model.ContactMessage, error) {
	var (
		m   model.ContactMessage
		err error
	)
	if m.FullName, err = validate.Name("full_name", in.FullName); err != nil {
		return model.ContactMessage{}, err
	}
	if m.Email, err = validate.Email("email", in.Email); err != nil {
		return model.ContactMessage{}, err
	}
	if in.Phone != nil && *in.Phone != "" {
		phone, err := validate.Phone("phone", *in.Phone)
		if err != nil {
			return model.ContactMessage{}, err
		}
		m.Phone = &phone
	}
	if m.Subject, err = validate.Text("subject", in.Subject, 200, true); err != nil {
		return model.ContactMessage{}, err
	}
	if m.Message, err = validate.Text("message", in.Message, 5000, true); err != nil {
		return model.ContactMessage{}, err
	}

	now := s.now()
	m.ID = uuid.NewString()
	m.Status = model.ContactNew
	m.CreatedAt, m.UpdatedAt = now, now

	evt := outbox.New("contact_submission", m.ID, outbox.TypeContactMessageCreated, outbox.ContactMessageCreated{
		ContactID: m.ID,
		FullName:  m.FullName,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
	})
	return s.store.CreateContactMessage(ctx, m, evt)
}

func (s *Service) ListContactMessages(ctx context.Context, f model.ListFilter) ([]model.ContactMessage, error) {
	if f.Status != "" && !model.ContactStatus(f.Status).Valid() {
		return nil, apperr.Validation("status", "unknown status "+f.Status)
	}
	return s.store.ListContactMessages(ctx, f.Normalize())
}

func (s *Service) UpdateContactMessage(ctx context.Context, id string, p Patch) (model.ContactMessage, error) {
	id, err := validate.ID(id)
	if err != nil {
		return model.ContactMessage{}, err
	}
	if p.empty() {
		return model.ContactMessage{}, apperr.Validation("body", "nothing to update")
	}
	if p.Status != nil && !model.ContactStatus(*p.Status).Valid() {
		return model.ContactMessage{}, apperr.Validation("status", "status must be new, replied or archived")
	}
	return s.store.UpdateContactMessage(ctx, id, p)
}

func (s *Service) DeleteContactMessage(ctx context.Context, id string) error {
	id, err := validate.ID(id)
	if err != nil {
		return err
	}
	return s.store.DeleteContactMessage(ctx, id)
}
