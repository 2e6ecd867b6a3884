// Package dispatch turns booking-service events into operator
// notifications, outbound alerts and dashboard refresh signals.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/practiceops/practiceops/libs/kafkax"
	"github.com/practiceops/practiceops/services/notification-service/internal/email"
	"github.com/practiceops/practiceops/services/notification-service/internal/realtime"
	"github.com/practiceops/practiceops/services/notification-service/internal/sms"
	"github.com/practiceops/practiceops/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const (
	TopicAppointmentRequested     = "booking.appointment.requested.v1"
	TopicAppointmentStatusChanged = "booking.appointment.status_changed.v1"
	TopicAvailabilityChanged      = "availability.changed.v1"
	TopicCallRequestCreated       = "intake.call_request.created.v1"
	TopicContactMessageCreated    = "intake.contact_message.created.v1"
)

// Topics lists every topic the dispatcher understands.
var Topics = []string{
	TopicAppointmentRequested,
	TopicAppointmentStatusChanged,
	TopicAvailabilityChanged,
	TopicCallRequestCreated,
	TopicContactMessageCreated,
}

const (
	KindAppointment = "appointment"
	KindCallRequest = "call_request"
	KindContact     = "contact"
)

type Store interface {
	Insert(ctx context.Context, n storage.Notification) (storage.Notification, error)
}

type Config struct {
	EmailTo []string
	SMSTo   []string
}

type Dispatcher struct {
	store  Store
	email  email.Sender
	sms    sms.Sender
	hub    realtime.Hub
	cfg    Config
	logger *slog.Logger
	newID  func() string
}

func New(store Store, emailSender email.Sender, smsSender sms.Sender, hub realtime.Hub, cfg Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		email:  emailSender,
		sms:    smsSender,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
		newID:  uuid.NewString,
	}
}

type appointmentRequested struct {
	AppointmentID   string    `json:"appointment_id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	SessionType     string    `json:"session_type"`
	TherapyChannel  string    `json:"therapy_channel"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Note            string    `json:"note"`
	CreatedAt       time.Time `json:"created_at"`
}

type statusChanged struct {
	AppointmentID string `json:"appointment_id"`
	From          string `json:"from"`
	To            string `json:"to"`
}

type availabilityChanged struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id"`
	Date   string `json:"date"`
}

type callRequestCreated struct {
	CallRequestID string `json:"call_request_id"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	PreferredTime string `json:"preferred_time"`
	Note          string `json:"note"`
}

type contactMessageCreated struct {
	ContactID string `json:"contact_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Handle processes one message. Malformed payloads are logged and dropped;
// only store failures are returned so the consumer retries them.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	switch meta.EventType {
	case TopicAppointmentRequested:
		var p appointmentRequested
		if !d.decode(msg, meta, &p) {
			return nil
		}
		return d.notify(ctx, alert{
			kind:      KindAppointment,
			reference: p.AppointmentID,
			title:     "Yeni randevu talebi",
			body:      appointmentBody(p),
			table:     "appointments",
		})

	case TopicCallRequestCreated:
		var p callRequestCreated
		if !d.decode(msg, meta, &p) {
			return nil
		}
		body := fmt.Sprintf("%s (%s) geri aranmak istiyor.", p.FullName, p.Phone)
		if p.PreferredTime != "" {
			body += " Uygun zaman: " + p.PreferredTime
		}
		return d.notify(ctx, alert{
			kind:      KindCallRequest,
			reference: p.CallRequestID,
			title:     "Yeni arama talebi",
			body:      body,
			table:     "call_requests",
		})

	case TopicContactMessageCreated:
		var p contactMessageCreated
		if !d.decode(msg, meta, &p) {
			return nil
		}
		return d.notify(ctx, alert{
			kind:      KindContact,
			reference: p.ContactID,
			title:     "Yeni iletişim mesajı",
			body:      fmt.Sprintf("%s <%s>: %s\n\n%s", p.FullName, p.Email, p.Subject, p.Message),
			table:     "contact_submissions",
		})

	case TopicAvailabilityChanged:
		var p availabilityChanged
		if !d.decode(msg, meta, &p) {
			return nil
		}
		d.publish(ctx, realtime.ChannelChanges, realtime.Change{Table: p.Table, Event: p.Action, ID: p.ID, Date: p.Date})
		return nil

	case TopicAppointmentStatusChanged:
		var p statusChanged
		if !d.decode(msg, meta, &p) {
			return nil
		}
		d.publish(ctx, realtime.ChannelChanges, realtime.Change{Table: "appointments", Event: "update", ID: p.AppointmentID})
		return nil

	default:
		d.logger.Warn("unhandled event type", "event_type", meta.EventType, "topic", msg.Topic)
		return nil
	}
}

type alert struct {
	kind      string
	reference string
	title     string
	body      string
	table     string
}

func (d *Dispatcher) notify(ctx context.Context, a alert) error {
	ref := a.reference
	n, err := d.store.Insert(ctx, storage.Notification{
		ID:          d.newID(),
		Kind:        a.kind,
		Title:       a.title,
		Body:        a.body,
		ReferenceID: &ref,
	})
	if err != nil {
		return err
	}

	d.publish(ctx, realtime.ChannelNotifications, n)
	d.publish(ctx, realtime.ChannelChanges, realtime.Change{Table: a.table, Event: "insert", ID: a.reference})

	for _, to := range d.cfg.EmailTo {
		if err := d.email.Send(ctx, to, a.title, a.body); err != nil {
			d.logger.Error("email send failed", "err", err, "provider", d.email.ProviderID(), "kind", a.kind)
		}
	}
	smsBody := a.title + ": " + firstLine(a.body)
	for _, to := range d.cfg.SMSTo {
		if err := d.sms.Send(ctx, to, smsBody); err != nil {
			d.logger.Error("sms send failed", "err", err, "provider", d.sms.ProviderID(), "kind", a.kind)
		}
	}

	d.logger.Info("notification created", "notification_id", n.ID, "kind", a.kind, "reference_id", a.reference)
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, channel string, v any) {
	if err := d.hub.Publish(ctx, channel, v); err != nil {
		d.logger.Warn("realtime publish failed", "err", err, "channel", channel)
	}
}

func (d *Dispatcher) decode(msg kafka.Message, meta kafkax.EventMeta, dst any) bool {
	if err := json.Unmarshal(msg.Value, dst); err != nil {
		d.logger.Error("invalid event payload", "err", err, "event_id", meta.EventID, "event_type", meta.EventType)
		return false
	}
	return true
}

var sessionLabels = map[string]string{
	"individual": "Bireysel terapi",
	"parenting":  "Ebeveyn danışmanlığı",
	"checkin":    "Ön görüşme",
}

var channelLabels = map[string]string{
	"remote-video": "Online",
	"in-person":    "Yüz yüze",
}

func appointmentBody(p appointmentRequested) string {
	var b strings.Builder
	b.WriteString(p.FullName)
	b.WriteString(" (")
	b.WriteString(p.Phone)
	b.WriteString(")")
	if p.AppointmentDate != "" {
		fmt.Fprintf(&b, " %s %s", p.AppointmentDate, shortTime(p.AppointmentTime))
	} else {
		b.WriteString(" tarih seçmedi, aranmak istiyor")
	}
	if label, ok := sessionLabels[p.SessionType]; ok {
		b.WriteString(" · " + label)
	}
	if label, ok := channelLabels[p.TherapyChannel]; ok {
		b.WriteString(" · " + label)
	}
	if p.Note != "" {
		b.WriteString("\n\n" + p.Note)
	}
	return b.String()
}

// shortTime trims seconds from an HH:MM:SS value.
func shortTime(t string) string {
	if len(t) == 8 && t[2] == ':' && t[5] == ':' {
		return t[:5]
	}
	return t
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
