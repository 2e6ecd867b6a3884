package model

import "time"

type CallRequestStatus string

const (
	CallPending CallRequestStatus = "pending"
	CallCalled  CallRequestStatus = "called"
	CallClosed  CallRequestStatus = "closed"
)

func (s CallRequestStatus) Valid() bool {
	return s == CallPending || s == CallCalled || s == CallClosed
}

type CallRequest struct {
	ID            string            `json:"id"`
	FullName      string            `json:"full_name"`
	Phone         string            `json:"phone"`
	PreferredTime *string           `json:"preferred_time,omitempty"`
	Note          string            `json:"note"`
	Status        CallRequestStatus `json:"status"`
	IsRead        bool              `json:"is_read"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

func (s ContactStatus) Valid() bool {
	return s == ContactNew || s == ContactReplied || s == ContactArchived
}

type ContactMessage struct {
	ID        string        `json:"id"`
	FullName  string        `json:"full_name"`
	Email     string        `json:"email"`
	Phone     *string       `json:"phone,omitempty"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	IsRead    bool          `json:"is_read"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
