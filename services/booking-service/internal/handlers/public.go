package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/httpx"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/booking"
	"github.com/practiceops/practiceops/services/booking-service/internal/intake"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

// PublicHandler serves the booking widget and the site's forms.
type PublicHandler struct {
	resolver *availability.Resolver
	booking  *booking.Service
	intake   *intake.Service
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewPublicHandler(resolver *availability.Resolver, bookingSvc *booking.Service, intakeSvc *intake.Service, loc *time.Location, logger *slog.Logger) *PublicHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PublicHandler{
		resolver: resolver,
		booking:  bookingSvc,
		intake:   intakeSvc,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/public/availability", h.Day)
	mux.HandleFunc("GET /api/v1/public/availability/month", h.Month)
	mux.HandleFunc("POST /api/v1/public/appointments", h.SubmitAppointment)
	mux.HandleFunc("POST /api/v1/public/call-requests", h.SubmitCallRequest)
	mux.HandleFunc("POST /api/v1/public/contact", h.SubmitContact)
}

type dayResponse struct {
	model.DayAvailability
	DayName string `json:"day_name"`
	Label   string `json:"label"`
}

// Day answers ?date=YYYY-MM-DD, defaulting to today in the practice timezone.
func (h *PublicHandler) Day(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	date := h.today()
	if raw != "" {
		d, err := availability.ParseDate(raw)
		if err != nil {
			httpx.WriteError(w, h.logger, r, apperr.Validation("date", "date must be YYYY-MM-DD"))
			return
		}
		date = d
	}

	day, err := h.resolver.DayAvailability(r.Context(), date)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dayResponse{
		DayAvailability: day,
		DayName:         availability.DayName(day.DayOfWeek),
		Label:           availability.LongDate(date),
	})
}

type monthResponse struct {
	Year      int                     `json:"year"`
	Month     int                     `json:"month"`
	MonthName string                  `json:"month_name"`
	Days      []model.DayAvailability `json:"days"`
}

// Month answers ?year=YYYY&month=0..11, defaulting to the current month.
func (h *PublicHandler) Month(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, err := queryInt(r, "year", today.Year())
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	month, err := queryInt(r, "month", int(today.Month())-1)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}

	days, err := h.resolver.Month(r.Context(), year, month)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, monthResponse{
		Year:      year,
		Month:     month,
		MonthName: availability.MonthName(month),
		Days:      days,
	})
}

type submittedResponse struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	AppointmentDate *string `json:"appointment_date,omitempty"`
	AppointmentTime *string `json:"appointment_time,omitempty"`
}

func (h *PublicHandler) SubmitAppointment(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	appt, err := h.booking.Submit(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	h.logger.Info("appointment requested",
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"appointment_id", appt.ID,
		"has_slot", appt.AppointmentDate != nil,
	)
	httpx.WriteJSON(w, http.StatusCreated, submittedResponse{
		ID:              appt.ID,
		Status:          string(appt.Status),
		AppointmentDate: appt.AppointmentDate,
		AppointmentTime: appt.AppointmentTime,
	})
}

func (h *PublicHandler) SubmitCallRequest(w http.ResponseWriter, r *http.Request) {
	var in intake.CallRequestInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	c, err := h.intake.CreateCallRequest(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, submittedResponse{ID: c.ID, Status: string(c.Status)})
}

func (h *PublicHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var in intake.ContactInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	m, err := h.intake.CreateContactMessage(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, submittedResponse{ID: m.ID, Status: string(m.Status)})
}

// today is the practice's current calendar date at UTC midnight, matching
// the dates produced by availability.ParseDate.
func (h *PublicHandler) today() time.Time {
	now := h.now().In(h.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
