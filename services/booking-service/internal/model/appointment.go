package model

import "time"

type SessionType string

const (
	SessionIndividual SessionType = "individual"
	SessionParenting  SessionType = "parenting"
	SessionCheckin    SessionType = "checkin"
)

func (s SessionType) Valid() bool {
	switch s {
	case SessionIndividual, SessionParenting, SessionCheckin:
		return true
	}
	return false
}

type TherapyChannel string

const (
	ChannelRemoteVideo TherapyChannel = "remote-video"
	ChannelInPerson    TherapyChannel = "in-person"
)

func (c TherapyChannel) Valid() bool {
	return c == ChannelRemoteVideo || c == ChannelInPerson
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an operator may move an appointment from s to next.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment dates are "2006-01-02" and times "15:04:05". Both are nil for
// requests that ask to be called back for scheduling.
type Appointment struct {
	ID              string            `json:"id"`
	FullName        string            `json:"full_name"`
	Email           *string           `json:"email,omitempty"`
	Phone           string            `json:"phone"`
	SessionType     SessionType       `json:"session_type"`
	TherapyChannel  TherapyChannel    `json:"therapy_channel"`
	AppointmentDate *string           `json:"appointment_date,omitempty"`
	AppointmentTime *string           `json:"appointment_time,omitempty"`
	Note            string            `json:"note"`
	AdminNotes      string            `json:"admin_notes"`
	Status          AppointmentStatus `json:"status"`
	IsRead          bool              `json:"is_read"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// BookedTime is one occupied (date, time) cell.
type BookedTime struct {
	Date string
	Time string
}
