package outbox

import (
	"encoding/json"
	"time"
)

// Event types double as Kafka topic names.
const (
	TypeAppointmentRequested     = "booking.appointment.requested.v1"
	TypeAppointmentStatusChanged = "booking.appointment.status_changed.v1"
	TypeAvailabilityChanged      = "availability.changed.v1"
	TypeCallRequestCreated       = "intake.call_request.created.v1"
	TypeContactMessageCreated    = "intake.contact_message.created.v1"
)

// Event is the envelope written to outbox_events in the same transaction as
// the change it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// New marshals payload into an event. Payloads are plain structs, so a
// marshal failure is a programming error and panics.
func New(aggregateType, aggregateID, eventType string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic("outbox: marshal " + eventType + ": " + err.Error())
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}
}

type AppointmentRequested struct {
	AppointmentID   string    `json:"appointment_id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	SessionType     string    `json:"session_type"`
	TherapyChannel  string    `json:"therapy_channel"`
	AppointmentDate string    `json:"appointment_date,omitempty"`
	AppointmentTime string    `json:"appointment_time,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type AppointmentStatusChanged struct {
	AppointmentID   string `json:"appointment_id"`
	From            string `json:"from"`
	To              string `json:"to"`
	AppointmentDate string `json:"appointment_date,omitempty"`
	AppointmentTime string `json:"appointment_time,omitempty"`
}

// AvailabilityChanged tells subscribers to refetch; it does not carry the
// new state.
type AvailabilityChanged struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Date   string `json:"date,omitempty"`
}

type CallRequestCreated struct {
	CallRequestID string `json:"call_request_id"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	PreferredTime string `json:"preferred_time,omitempty"`
	Note          string `json:"note,omitempty"`
}

type ContactMessageCreated struct {
	ContactID string `json:"contact_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}
